package sched

import "github.com/eduos/schedcore/proc"

// RR is round-robin: a left-to-right scan of the table that resumes just
// after the last-dispatched slot each time, wrapping at the end, per
// section 4.3.1 ("continue the scan from the next slot in the same
// table-sweep iteration"). Without this cursor a continuously-runnable
// low-index process would be re-picked every time and starve every
// higher slot; the cursor is what makes this actually round-robin rather
// than always-lowest-first.
type RR struct {
	last int
}

// NewRR builds a round-robin policy with its sweep cursor before slot 0.
func NewRR() *RR { return &RR{last: -1} }

func (*RR) Name() string      { return "RR" }
func (*RR) Preemptible() bool { return true }

func (r *RR) Select(t *proc.Table, _ int64) *proc.Process {
	n := t.Len()
	for i := 1; i <= n; i++ {
		idx := (r.last + i) % n
		p := t.Slot(idx)
		if p.State == proc.Runnable {
			r.last = idx
			return p
		}
	}
	return nil
}

// OnDispatch resets cur_waiting_time and bumps n_run per section 4.3.1;
// the caller is responsible for the state -> RUNNING transition itself.
func (*RR) OnDispatch(_ *proc.Table, p *proc.Process, _ int64) {
	p.CurWaitingTime = 0
	p.NRun++
}

// OnReturn does nothing: the cursor already advanced past this slot in
// Select, so the next sweep naturally resumes after it.
func (*RR) OnReturn(_ *proc.Table, _ *proc.Process, _ int64) {}

// OnWakeup does nothing beyond the RUNNABLE transition the caller performs:
// the table scan finds the process wherever it sits.
func (*RR) OnWakeup(_ *proc.Table, _ *proc.Process, _ int64) {}
