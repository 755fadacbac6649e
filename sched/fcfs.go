package sched

import "github.com/eduos/schedcore/proc"

// FCFS is first-come-first-served: among RUNNABLE slots, always pick the
// smallest ctime, ties broken by slot order. It is non-preemptible — see
// the open-question resolution in SPEC_FULL.md: the tick-driven quantum
// path must never set change_queue while this policy is active.
type FCFS struct{}

func (FCFS) Name() string      { return "FCFS" }
func (FCFS) Preemptible() bool { return false }

func (FCFS) Select(t *proc.Table, _ int64) *proc.Process {
	var best *proc.Process
	for i := 0; i < t.Len(); i++ {
		p := t.Slot(i)
		if p.State != proc.Runnable {
			continue
		}
		if best == nil || p.CTime < best.CTime {
			best = p
		}
	}
	return best
}

func (FCFS) OnDispatch(_ *proc.Table, p *proc.Process, _ int64) {
	p.CurWaitingTime = 0
	p.NRun++
}

func (FCFS) OnReturn(_ *proc.Table, _ *proc.Process, _ int64) {}
func (FCFS) OnWakeup(_ *proc.Table, _ *proc.Process, _ int64)  {}
