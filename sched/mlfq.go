package sched

import (
	"github.com/eduos/schedcore/mlfq"
	"github.com/eduos/schedcore/proc"
)

// quanta holds the per-level tick quantum, doubling from level 0 (highest
// priority, shortest quantum) to level 4.
var quanta = [proc.MLFQLevels]int{1, 2, 4, 8, 16}

// agingThreshold is the queue-residency limit (in ticks) past which a
// process is promoted one level (section 4.3.4 step 2).
const agingThreshold = 30

// MLFQ is the five-level feedback queue policy. It owns the queue store
// backing queue membership; the process's own QueueNo/CurTicks/EnterTime/
// ChangeQueue fields (proc.Process) mirror what the queue position implies
// and are what the ps command and the tests observe.
type MLFQ struct {
	q *mlfq.Store
}

// NewMLFQ builds an MLFQ policy with a node pool sized for capacity
// processes (NPROC).
func NewMLFQ(capacity int) *MLFQ {
	return &MLFQ{q: mlfq.NewStore(capacity)}
}

func (*MLFQ) Name() string      { return "MLFQ" }
func (*MLFQ) Preemptible() bool { return true }

// Quantum returns the tick quantum for the given level, used by the
// kernel's tick accountant to decide when to set ChangeQueue.
func Quantum(level int) int { return quanta[level] }

func (m *MLFQ) Select(t *proc.Table, now int64) *proc.Process {
	m.headCleanup(t)
	m.age(t, now)
	m.headCleanup(t)

	for level := 0; level < proc.MLFQLevels; level++ {
		if p := m.q.Peek(level); p != nil && p.State == proc.Runnable {
			return m.q.Pop(level)
		}
	}
	return nil
}

// headCleanup drops any queue head that is no longer RUNNABLE (section
// 4.3.4 step 1): a SLEEPING head will be re-pushed on wakeup, a ZOMBIE head
// is already reaped or awaiting reap and has no business in a run queue.
func (m *MLFQ) headCleanup(t *proc.Table) {
	for level := 0; level < proc.MLFQLevels; level++ {
		for {
			p := m.q.Peek(level)
			if p == nil {
				break
			}
			if p.State == proc.Sleeping || p.State == proc.Zombie {
				m.q.Pop(level)
				continue
			}
			break
		}
	}
}

// age promotes any head that has waited longer than agingThreshold ticks
// without being dispatched (section 4.3.4 step 2). Level 0 is never aged:
// it is already the highest level, so there is nowhere to promote it to.
func (m *MLFQ) age(t *proc.Table, now int64) {
	for level := 1; level < proc.MLFQLevels; level++ {
		for {
			p := m.q.Peek(level)
			if p == nil || now-p.EnterTime <= agingThreshold {
				break
			}
			m.q.Pop(level)
			p.CurWaitingTime = 0
			p.CurTicks = 0
			p.ChangeQueue = false
			p.QueueNo--
			p.EnterTime = now
			m.q.Push(p.QueueNo, p)
		}
	}
}

func (*MLFQ) OnDispatch(_ *proc.Table, p *proc.Process, _ int64) {
	p.CurWaitingTime = 0
	p.NRun++
}

// OnReturn reinserts a still-RUNNABLE process per section 4.3.4 step 4.
func (m *MLFQ) OnReturn(_ *proc.Table, p *proc.Process, now int64) {
	if !p.ChangeQueue {
		p.CurTicks = 0
		p.EnterTime = now
		m.q.Push(p.QueueNo, p)
		return
	}
	p.CurTicks = 0
	p.ChangeQueue = false
	p.EnterTime = now
	if p.QueueNo < proc.MLFQLevels-1 {
		p.QueueNo++
	}
	m.q.Push(p.QueueNo, p)
}

// OnWakeup pushes a newly-RUNNABLE process onto its current level (section
// 4.3.4 final paragraph): level 0 for a freshly forked/initialized process
// (QueueNo is already 0, set by proc.Table.Alloc), or queues[QueueNo] for a
// process waking from sleep or a kill-induced wakeup. Every call site only
// reaches here for a process that was already popped off its queue when it
// was last dispatched (section 4.4: a process occupies at most one node),
// so the Remove below is normally a no-op; it's kept as a guard against a
// caller ever invoking OnWakeup twice for the same still-queued process,
// which would otherwise silently consume two pool nodes for one process —
// the C source doesn't need this because it only ever touches a head, not
// an arbitrary still-linked node.
func (m *MLFQ) OnWakeup(_ *proc.Table, p *proc.Process, now int64) {
	m.q.Remove(p.QueueNo, p)
	p.CurTicks = 0
	p.EnterTime = now
	p.ChangeQueue = false
	m.q.Push(p.QueueNo, p)
}
