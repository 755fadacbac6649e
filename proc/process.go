// Package proc implements the process table and allocator described in
// section 3 and 4.1 of the scheduling core: a fixed-capacity array of
// process slots, one per simulated process, plus the per-process accounting
// the scheduler and the kernel's coordination primitives depend on.
package proc

import "fmt"

// State is the tagged state field from the process lifecycle:
// UNUSED -> EMBRYO -> RUNNABLE <-> RUNNING <-> SLEEPING -> ZOMBIE -> UNUSED.
type State int

const (
	Unused State = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Embryo:
		return "EMBRYO"
	case Sleeping:
		return "SLEEPING"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Zombie:
		return "ZOMBIE"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// NoQueue is queue_no's value when MLFQ is not the active policy.
const NoQueue = -1

// DefaultPriority is the PBS starting priority assigned by Alloc.
const DefaultPriority = 60

// MLFQLevels is the number of MLFQ queues (5, indexed 0..4).
const MLFQLevels = 5

// Process is a single process-table slot. Every field here is owned by the
// table; a Process is only ever mutated while the table lock is held by the
// caller (see Table.Lock/Unlock). Non-owning references (Parent, the
// per-CPU "current" pointer that callers keep on the side, and MLFQ queue
// nodes) may point at a Process without affecting its lifetime — the table
// alone decides when a slot frees.
type Process struct {
	State  State
	PID    int
	Parent *Process

	// Chan is the opaque wait-channel identifier this process is sleeping
	// on. Only meaningful while State == Sleeping.
	Chan any

	// Killed is sticky: once set, it is honored the next time this
	// process would return to user mode (modeled here as the next time
	// its workload checks Handle.Killed via the run loop).
	Killed bool

	CTime int64
	ETime int64

	RTime          int64
	IOTime         int64
	CurWaitingTime int64

	NRun int

	// Priority is PBS's priority in [0,100]; lower is more important.
	Priority int
	// Chance is PBS's aging tiebreaker, reset per the rule in sched.PBS.
	Chance int

	// QueueNo is MLFQ's current level in [0,4], or NoQueue when MLFQ is
	// not the active policy.
	QueueNo     int
	CurTicks    int
	EnterTime   int64
	ChangeQueue bool
	// Ticks[i] is cumulative ticks spent at MLFQ level i.
	Ticks [MLFQLevels]int64

	// Workload is the function run in this process's goroutine. It is
	// set by the caller (the kernel's fork or Init) before the slot leaves
	// EMBRYO and is never touched by the table itself.
	Workload func(h Handle)

	// resume/parked implement the context-switch handshake described in
	// the design notes: resume carries "you are RUNNING now, proceed",
	// parked carries "I have relinquished the CPU" back to the
	// dispatching scheduler loop. Both are unbuffered so the handoff is
	// synchronous, mirroring swtch()'s blocking contract.
	resume chan struct{}
	parked chan struct{}
}

// Handle is the capability a running workload uses to call back into the
// kernel (yield, sleep, exit, fork...). It is a thin pointer pair so
// workload functions never need to import the kernel package's
// implementation details — only this interface's methods.
type Handle interface {
	PID() int
	Yield()
	Sleep(chanID any)
	Exit(status int)
	Killed() bool
	Fork(workload func(Handle)) int
	Wait() int
	Waitx() (pid int, wtime int64, rtime int64)
	SetPriority(newPriority, pid int) int
}

func newProcess() *Process {
	return &Process{
		resume: make(chan struct{}),
		parked: make(chan struct{}),
	}
}

// Resume unblocks the process's goroutine so it proceeds as RUNNING. The
// caller must have already set State = Running under the table lock and
// must not hold the lock when calling Resume (the process goroutine may
// immediately try to re-acquire it).
func (p *Process) Resume() { p.resume <- struct{}{} }

// WaitParked blocks until the process relinquishes the CPU (yield, sleep,
// or exit), mirroring swtch() returning control to the scheduler.
func (p *Process) WaitParked() { <-p.parked }

// AwaitResume and Park are called only from within the process's own
// goroutine (see kernel.runProcess), never from a scheduler loop — they are
// the other end of Resume/WaitParked.
func (p *Process) AwaitResume() { <-p.resume }
func (p *Process) Park()        { p.parked <- struct{}{} }
