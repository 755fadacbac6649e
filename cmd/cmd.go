// Package cmd wires the scheduling core into a single runnable CLI: every
// scheduler subcommand boots its own simulated kernel (there is no daemon
// to attach to), drives it with a real-time tick loop, and renders
// the resulting process-table snapshot the way xv6's my_ps, time, and
// setPriority user programs would.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eduos/schedcore/auditsrc"
	"github.com/eduos/schedcore/host"
	"github.com/eduos/schedcore/kernel"
	"github.com/eduos/schedcore/proc"
	"github.com/eduos/schedcore/ui"
)

// SetupCLI constructs the cobra hierarchy for the schedcore CLI.
func SetupCLI() *cobra.Command {
	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(setPriorityCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sourceCmd)
	sourceCmd.AddCommand(changesCmd)
	sourceCmd.AddCommand(releasesCmd)
	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		cmd.Help()
		os.Exit(0)
	}
}

func runSource(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		cmd.Help()
		os.Exit(0)
	}
}

// schedulerKindFromFlag maps a --scheduler flag value onto a
// kernel.SchedulerKind, defaulting to RR for anything unrecognized.
func schedulerKindFromFlag(v string) kernel.SchedulerKind {
	switch v {
	case "fcfs":
		return kernel.SchedFCFS
	case "pbs":
		return kernel.SchedPBS
	case "mlfq":
		return kernel.SchedMLFQ
	default:
		return kernel.SchedRR
	}
}

// resolveCPUCount turns the --cpus flag ("auto" or a literal count) into a
// concrete CPU count, using host.LinuxReader to size "auto" off the real
// machine's processor count.
func resolveCPUCount(v string) int {
	if v != "auto" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		return 1
	}
	lr := host.NewLinuxReader(host.LinuxReaderConfig{})
	hw, err := lr.GetHardware()
	if err != nil || hw.CPU.CPUCount == 0 {
		return 1
	}
	return hw.CPU.CPUCount
}

// driveTicks starts a real-time tick loop against k, one Tick per
// interval, stopping when done is closed. Every kernel-booting subcommand uses this
// instead of an idle busy loop, since Tick's accounting (and MLFQ's
// quantum tracking) is only meaningful once per simulated instant.
func driveTicks(k *kernel.Kernel, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.Tick()
		case <-done:
			return
		}
	}
}

const tickInterval = time.Millisecond

// runBoot boots a simulated kernel under the requested policy, forks a
// batch of demo CPU-bound children under init, waits for all of them, and
// renders the final process-table snapshot.
func runBoot(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	schedulerFlagVal, _ := fs.GetString(schedulerFlag)
	cpusFlagVal, _ := fs.GetString(cpusFlag)
	nproc, _ := fs.GetInt(nprocFlag)
	children, _ := fs.GetInt(childrenFlag)
	verbose, _ := fs.GetBool(verboseFlag)
	outFlagVal, _ := fs.GetString(outputFlag)

	cfg := kernel.Config{
		Scheduler: schedulerKindFromFlag(schedulerFlagVal),
		NCPU:      resolveCPUCount(cpusFlagVal),
		NPROC:     nproc,
	}
	logger := logrus.New()
	k := kernel.New(cfg, logger)

	done := make(chan struct{})
	result := make(chan []kernel.ProcessSnapshot, 1)
	_, err := k.Init(func(h proc.Handle) {
		for i := 0; i < children; i++ {
			h.Fork(cpuBurn(50))
		}
		for i := 0; i < children; i++ {
			h.Waitx()
		}
		result <- k.PS()
		close(done)
		// init must never return to runProcess: returning would route it
		// through exit(), which is forbidden for the init process.
		select {}
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, done)

	snap := <-result
	renderPS(snap, resolveOutputType(outFlagVal), verbose)
}

// runTime forks a single workload and reports its waitx() accounting, the
// way time.c reports "Waiting time" and "Running time" for argv[1].
func runTime(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	schedulerFlagVal, _ := fs.GetString(schedulerFlag)
	cfg := kernel.Config{Scheduler: schedulerKindFromFlag(schedulerFlagVal), NCPU: 1, NPROC: 16}
	k := kernel.New(cfg, logrus.New())

	done := make(chan struct{})
	type timing struct {
		pid, wtime, rtime int
	}
	result := make(chan timing, 1)
	_, err := k.Init(func(h proc.Handle) {
		h.Fork(cpuBurn(200))
		pid, wtime, rtime := h.Waitx()
		result <- timing{pid, int(wtime), int(rtime)}
		close(done)
		select {}
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, done)

	t := <-result
	fmt.Printf("Details of time for workload\nProcess id: %d\nWaiting time: %d\nRunning time: %d\n", t.pid, t.wtime, t.rtime)
}

// runSetPriority forks a PBS workload, immediately sets its priority to the
// --priority value (a lower number means more important), and shows the
// before/after priority the way setPriority.c's set_priority(new_priority,
// pid) call does.
func runSetPriority(cmd *cobra.Command, args []string) {
	newPriority, _ := cmd.Flags().GetInt(priorityFlag)
	cfg := kernel.Config{Scheduler: kernel.SchedPBS, NCPU: 1, NPROC: 16}
	k := kernel.New(cfg, logrus.New())

	done := make(chan struct{})
	result := make(chan int, 1)
	_, err := k.Init(func(h proc.Handle) {
		childPID := h.Fork(cpuBurn(100))
		result <- h.SetPriority(newPriority, childPID)
		h.Waitx()
		close(done)
		select {}
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, done)

	old := <-result
	fmt.Printf("priority changed from %d to %d\n", old, newPriority)
}

// runKill forks a sleeping child, kills it, and waits for it to be reaped,
// demonstrating kill's sticky Killed flag on a parked process.
func runKill(cmd *cobra.Command, args []string) {
	cfg := kernel.Config{Scheduler: kernel.SchedRR, NCPU: 1, NPROC: 16}
	k := kernel.New(cfg, logrus.New())

	done := make(chan struct{})
	result := make(chan int, 1)
	_, err := k.Init(func(h proc.Handle) {
		childPID := h.Fork(ioWait("kill-demo", 10))
		// With one RR CPU, init's first yield lets the child run its first
		// Yield, and the second lets it go on into Sleep.
		h.Yield()
		h.Yield()
		result <- k.Kill(childPID)
		h.Waitx()
		close(done)
		select {}
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, done)

	rc := <-result
	fmt.Printf("kill returned %d\n", rc)
}

// runBench forks a batch of CPU-bound children (benchmark.c's
// number_of_processes loop), waits for every one of them, and renders the
// final process table. Each child's slot is already freed by its reap, so
// that table lists init alone; per-child run times are not reported.
func runBench(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	schedulerFlagVal, _ := fs.GetString(schedulerFlag)
	children, _ := fs.GetInt(childrenFlag)
	verbose, _ := fs.GetBool(verboseFlag)

	cfg := kernel.Config{Scheduler: schedulerKindFromFlag(schedulerFlagVal), NCPU: 1, NPROC: 32}
	k := kernel.New(cfg, logrus.New())

	done := make(chan struct{})
	result := make(chan []kernel.ProcessSnapshot, 1)
	_, err := k.Init(func(h proc.Handle) {
		for i := 0; i < children; i++ {
			h.Fork(cpuBurn(200))
		}
		for i := 0; i < children; i++ {
			h.Waitx()
		}
		result <- k.PS()
		close(done)
		select {}
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, done)

	snap := <-result
	renderPS(snap, tableOut, verbose)
}

// runServe boots a kernel with long-running demo workloads under init and
// serves the live HTML dashboard over it until interrupted.
func runServe(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	schedulerFlagVal, _ := fs.GetString(schedulerFlag)
	cpusFlagVal, _ := fs.GetString(cpusFlag)
	nproc, _ := fs.GetInt(nprocFlag)
	children, _ := fs.GetInt(childrenFlag)

	cfg := kernel.Config{
		Scheduler: schedulerKindFromFlag(schedulerFlagVal),
		NCPU:      resolveCPUCount(cpusFlagVal),
		NPROC:     nproc,
	}
	k := kernel.New(cfg, logrus.New())

	_, err := k.Init(func(h proc.Handle) {
		for i := 0; i < children; i++ {
			h.Fork(foreverBurn())
		}
		h.Waitx()
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed starting init process: %s", err))
	}

	k.Boot()
	go driveTicks(k, tickInterval, nil)

	ui.New(k).RunUI()
}

// runChanges wires auditsrc.ConfigHistory to list every commit touching
// path (the scheduler's own policy config file, by convention) in repoURL.
func runChanges(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		cmd.Help()
		os.Exit(0)
	}
	repoURL := args[0]
	path := ""
	if len(args) > 1 {
		path = args[1]
	}

	commits, err := auditsrc.ConfigHistory(repoURL, path)
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed resolving commit history: %s", err))
	}

	outFlagVal, _ := cmd.Flags().GetString(outputFlag)
	if resolveOutputType(outFlagVal) == jsonOut {
		out, _ := json.Marshal(commits)
		output(out)
		return
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Hash", "Date", "Author", "Subject"})
	for _, c := range commits {
		table.Append([]string{c.Hash, c.Date.Format(time.RFC3339), c.Author.Name, c.Subject})
	}
	table.Render()
	output(buf.Bytes())
}

// runReleases wires auditsrc.ReleaseAuditor to list a GitHub repository's
// tagged releases.
func runReleases(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		cmd.Help()
		os.Exit(0)
	}
	token, _ := cmd.Flags().GetString(tokenFlag)
	auditor := auditsrc.NewReleaseAuditor(token)
	releases, err := auditor.Releases(args[0])
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("failed listing releases: %s", err))
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Tag", "Name", "Assets"})
	for _, r := range releases {
		table.Append([]string{r.Tag, r.Name, strconv.Itoa(len(r.Assets))})
	}
	table.Render()
	output(buf.Bytes())
}

// renderPS writes a process-table snapshot either as a go-spew verbose
// dump, a JSON document, or a tablewriter table modeled on my_ps's column
// layout (PID, priority, state, r_time, w_time, n_run, cur_q).
func renderPS(snap []kernel.ProcessSnapshot, ot outputType, verbose bool) {
	if verbose {
		spew.Dump(snap)
		return
	}
	if ot == jsonOut {
		out, _ := json.Marshal(snap)
		output(out)
		return
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"PID", "PPID", "STATE", "PRIORITY", "RTIME", "WTIME", "NRUN", "QUEUE"})
	for _, p := range snap {
		table.Append([]string{
			strconv.Itoa(p.PID),
			strconv.Itoa(p.ParentPID),
			p.State.String(),
			strconv.Itoa(p.Priority),
			strconv.FormatInt(p.RTime, 10),
			strconv.FormatInt(p.CurWaitingTime, 10),
			strconv.Itoa(p.NRun),
			strconv.Itoa(p.QueueNo),
		})
	}
	table.Render()
	output(buf.Bytes())
}

func output(out []byte) {
	fmt.Printf("%s", out)
}

func outputErrorAndFail(msg string) {
	fmt.Println(msg)
	os.Exit(1)
}
