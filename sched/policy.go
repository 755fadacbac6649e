// Package sched implements the policy-dispatched scheduler loop (section
// 4.3): the four scheduling policies as implementations of a common
// interface, selected once at kernel construction in place of the source's
// #if SCHEDULER == ... chain (see the Design Notes on runtime policy
// dispatch).
package sched

import "github.com/eduos/schedcore/proc"

// Policy is the per-scheduler-iteration decision surface. A scheduler loop
// calls these while holding the table lock; none of them may block. now is
// the current tick count, needed by MLFQ for aging and enter_time
// bookkeeping; the other three policies ignore it.
type Policy interface {
	// Name identifies the policy for logging and the ps command.
	Name() string

	// Preemptible reports whether the timer path may request a voluntary
	// yield from the running process when its quantum (if any) expires.
	// FCFS and PBS return false; RR and MLFQ return true.
	Preemptible() bool

	// Select picks the next process to dispatch from the table, or nil if
	// none is runnable. It must not mutate table state beyond what
	// OnDispatch does on the returned process.
	Select(t *proc.Table, now int64) *proc.Process

	// OnDispatch is called immediately before a process selected by Select
	// is switched to RUNNING. It updates any policy-local bookkeeping
	// (chance, queue membership) that must happen at dispatch time.
	OnDispatch(t *proc.Table, p *proc.Process, now int64)

	// OnReturn is called when a dispatched process comes back to the
	// scheduler still RUNNABLE (yielded or was preempted). It performs any
	// reinsertion/aging bookkeeping the policy requires.
	OnReturn(t *proc.Table, p *proc.Process, now int64)

	// OnWakeup is called when a process transitions SLEEPING -> RUNNABLE,
	// or EMBRYO -> RUNNABLE on fork/init. It must make the process visible
	// to a later Select (e.g. push it onto an MLFQ queue).
	OnWakeup(t *proc.Table, p *proc.Process, now int64)
}
