package cmd

type outputType int

const (
	tableOut outputType = iota
	jsonOut
)

const (
	outputFlag     = "output"
	schedulerFlag  = "scheduler"
	cpusFlag       = "cpus"
	nprocFlag      = "nproc"
	childrenFlag   = "children"
	verboseFlag    = "verbose"
	tokenFlag      = "token"
	priorityFlag   = "priority"
)

// CLI flags to initialize.
func init() {
	bootCmd.Flags().StringP(schedulerFlag, "s", "rr", "Scheduling policy: rr, fcfs, pbs, or mlfq.")
	bootCmd.Flags().String(cpusFlag, "1", "Number of simulated CPUs, or \"auto\" to use the host's CPU count.")
	bootCmd.Flags().Int(nprocFlag, 64, "Process table capacity.")
	bootCmd.Flags().Int(childrenFlag, 6, "Number of demo workloads to fork under init.")
	bootCmd.Flags().BoolP(verboseFlag, "v", false, "Dump the full process snapshot (via go-spew) instead of a table.")
	bootCmd.Flags().StringP(outputFlag, "o", "table", "Output type for the final process listing [table (default), json].")

	psCmd.Flags().StringP(schedulerFlag, "s", "rr", "Scheduling policy: rr, fcfs, pbs, or mlfq.")
	psCmd.Flags().String(cpusFlag, "1", "Number of simulated CPUs, or \"auto\" to use the host's CPU count.")
	psCmd.Flags().Int(nprocFlag, 64, "Process table capacity.")
	psCmd.Flags().Int(childrenFlag, 6, "Number of demo workloads to fork under init.")
	psCmd.Flags().BoolP(verboseFlag, "v", false, "Dump the full process snapshot (via go-spew) instead of a table.")
	psCmd.Flags().StringP(outputFlag, "o", "table", "Output type for the final process listing [table (default), json].")

	benchCmd.Flags().StringP(schedulerFlag, "s", "rr", "Scheduling policy: rr, fcfs, pbs, or mlfq.")
	benchCmd.Flags().Int(childrenFlag, 10, "Number of CPU-bound children to fork (default matches benchmark.c's 10).")
	benchCmd.Flags().BoolP(verboseFlag, "v", false, "Dump the full process snapshot (via go-spew) instead of a table.")

	serveCmd.Flags().StringP(schedulerFlag, "s", "rr", "Scheduling policy: rr, fcfs, pbs, or mlfq.")
	serveCmd.Flags().String(cpusFlag, "1", "Number of simulated CPUs, or \"auto\" to use the host's CPU count.")
	serveCmd.Flags().Int(nprocFlag, 64, "Process table capacity.")
	serveCmd.Flags().Int(childrenFlag, 6, "Number of long-running demo workloads to fork under init.")

	timeCmd.Flags().StringP(schedulerFlag, "s", "rr", "Scheduling policy: rr, fcfs, pbs, or mlfq.")

	setPriorityCmd.Flags().Int(priorityFlag, 80, "The new priority [0,100] to apply; lower is more important.")

	releasesCmd.Flags().String(tokenFlag, "", "GitHub personal access token (optional; avoids the unauthenticated rate limit).")
	changesCmd.Flags().StringP(outputFlag, "o", "table", "Output type for command [table (default), json].")
}

func resolveOutputType(flagValue string) outputType {
	if flagValue == "json" {
		return jsonOut
	}
	return tableOut
}
