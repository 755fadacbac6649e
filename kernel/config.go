package kernel

import "github.com/eduos/schedcore/sched"

// SchedulerKind names one of the four compile-time-selected policies
// (section 6: "a single integer constant SCHEDULER"). We resolve it once,
// at Config construction, instead of a preprocessor #if chain.
type SchedulerKind int

const (
	SchedRR SchedulerKind = iota
	SchedFCFS
	SchedPBS
	SchedMLFQ
)

func (k SchedulerKind) String() string {
	switch k {
	case SchedRR:
		return "RR"
	case SchedFCFS:
		return "FCFS"
	case SchedPBS:
		return "PBS"
	case SchedMLFQ:
		return "MLFQ"
	default:
		return "UNKNOWN"
	}
}

// Config is the kernel's compile-time configuration, built once per CLI
// command (or once per test). NPROC bounds both the process table and, under MLFQ, the
// queue store's node pool.
type Config struct {
	Scheduler SchedulerKind
	NCPU      int
	NPROC     int
}

// DefaultConfig mirrors the teaching OS's usual build: a single scheduling
// policy, one CPU, and a modest process table.
func DefaultConfig() Config {
	return Config{Scheduler: SchedRR, NCPU: 1, NPROC: 64}
}

func (c Config) buildPolicy() sched.Policy {
	switch c.Scheduler {
	case SchedFCFS:
		return sched.FCFS{}
	case SchedPBS:
		return sched.PBS{}
	case SchedMLFQ:
		return sched.NewMLFQ(c.NPROC)
	default:
		return sched.NewRR()
	}
}
