package sched

import "github.com/eduos/schedcore/proc"

// PBS is priority-based scheduling with aging against a chance counter
// (section 4.3.3). Selection minimizes (priority, chance) lexicographically
// among RUNNABLE slots; chance is incremented on dispatch and, under a
// same-priority-all-equal condition, reset to 0 on return.
type PBS struct{}

func (PBS) Name() string      { return "PBS" }
func (PBS) Preemptible() bool { return false }

func (PBS) Select(t *proc.Table, _ int64) *proc.Process {
	var best *proc.Process
	for i := 0; i < t.Len(); i++ {
		p := t.Slot(i)
		if p.State != proc.Runnable {
			continue
		}
		if best == nil || better(p, best) {
			best = p
		}
	}
	return best
}

func better(a, b *proc.Process) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Chance < b.Chance
}

func (PBS) OnDispatch(_ *proc.Table, p *proc.Process, _ int64) {
	p.CurWaitingTime = 0
	p.NRun++
	p.Chance++
}

// OnReturn implements the chance-reset idiom literally per section 4.3.3:
// scan every other RUNNABLE slot at the just-dispatched process's priority;
// if all of them share its chance value (i.e. none differs), every
// same-priority RUNNABLE slot's chance resets to 0. This is what guarantees
// each process in a priority band runs once before any of them re-runs.
func (PBS) OnReturn(t *proc.Table, p *proc.Process, _ int64) {
	allEqual := true
	for i := 0; i < t.Len(); i++ {
		q := t.Slot(i)
		if q == p || q.State != proc.Runnable || q.Priority != p.Priority {
			continue
		}
		if q.Chance != p.Chance {
			allEqual = false
			break
		}
	}
	if !allEqual {
		return
	}
	for i := 0; i < t.Len(); i++ {
		q := t.Slot(i)
		if q.State == proc.Runnable && q.Priority == p.Priority {
			q.Chance = 0
		}
	}
}

func (PBS) OnWakeup(_ *proc.Table, _ *proc.Process, _ int64) {}
