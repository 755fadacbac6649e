package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schedcore",
	Short: "A command-line teaching tool for exploring a simulated xv6-derived process scheduler.",
	Run:   runRoot,
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot a simulated kernel under the configured policy and run a demo workload to completion.",
	Run:   runBoot,
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Boot a simulated kernel, run a demo workload to completion, and list the final process table (my_ps).",
	Run:   runBoot,
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Fork a single CPU-bound workload and report its waitx() accounting, the way xv6's time does.",
	Run:   runTime,
}

var setPriorityCmd = &cobra.Command{
	Use:   "setpriority",
	Short: "Demonstrate set_priority against a freshly forked PBS workload.",
	Run:   runSetPriority,
}

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Demonstrate kill against a freshly forked sleeping workload.",
	Run:   runKill,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Fork a batch of CPU-bound children, wait for all of them, and list the final process table.",
	Run:   runBench,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot a long-running simulated kernel and serve a live HTML dashboard over its process table.",
	Run:   runServe,
}

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"src"},
	Short:   "Audit the git history of the scheduler's own policy configuration.",
	Run:     runSource,
}

var changesCmd = &cobra.Command{
	Use:   "changes [repo-url] [path]",
	Short: "List every commit touching path (or the whole repo when path is omitted) in a cloned repository.",
	Run:   runChanges,
}

var releasesCmd = &cobra.Command{
	Use:   "releases [owner/repo]",
	Short: "List a GitHub repository's tagged releases.",
	Run:   runReleases,
}
