package proc

import (
	"github.com/go-errors/errors"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
)

// Table is the fixed-capacity process table (section 3, 4.1). The embedded
// deadlock.Mutex *is* "the table lock" referenced throughout the spec: every
// read or write of a Process's State, every queue manipulation elsewhere in
// this module, and every traversal of the table for scheduler selection
// happens while it is held. deadlock.Mutex is a drop-in sync.Mutex that also
// detects lock-order violations, which matters here because the table lock
// is the single synchronization primitive the whole core's correctness
// argument rests on.
type Table struct {
	deadlock.Mutex

	slots   []*Process
	nextPID int
}

// ErrTableFull is returned by Alloc when every slot is in use.
var ErrTableFull = errors.New("process table: no UNUSED slot available")

// NewTable constructs a table with the given fixed capacity (NPROC).
func NewTable(capacity int) *Table {
	slots := make([]*Process, capacity)
	for i := range slots {
		slots[i] = newProcess()
		slots[i].State = Unused
	}
	return &Table{slots: slots, nextPID: 1}
}

// Len reports NPROC, the table's fixed capacity.
func (t *Table) Len() int { return len(t.slots) }

// Slot returns the i'th slot directly. Callers must hold the table lock.
func (t *Table) Slot(i int) *Process { return t.slots[i] }

// Alloc finds the first UNUSED slot, flips it to EMBRYO, assigns the next
// monotonic pid, and initializes accounting/policy fields per section 4.1.
// It acquires and releases the table lock itself; the caller still has more
// setup to do (attach a Workload, set Parent) before flipping the slot to
// RUNNABLE.
func (t *Table) Alloc(now int64, mlfqActive bool) (*Process, error) {
	t.Lock()
	defer t.Unlock()

	var p *Process
	for _, s := range t.slots {
		if s.State == Unused {
			p = s
			break
		}
	}
	if p == nil {
		return nil, errors.Wrap(ErrTableFull, 0)
	}

	p.State = Embryo
	p.PID = t.nextPID
	t.nextPID++

	p.Parent = nil
	p.Chan = nil
	p.Killed = false
	p.CTime = now
	p.ETime = 0
	p.RTime = 0
	p.IOTime = 0
	p.CurWaitingTime = 0
	p.NRun = 0
	p.Priority = DefaultPriority
	p.Chance = 0
	p.CurTicks = 0
	p.EnterTime = now
	p.ChangeQueue = false
	for i := range p.Ticks {
		p.Ticks[i] = 0
	}
	if mlfqActive {
		p.QueueNo = 0
	} else {
		p.QueueNo = NoQueue
	}
	p.Workload = nil

	return p, nil
}

// Free returns a slot to UNUSED, clearing every identifying field. Callers
// must hold the table lock and must only call this on a ZOMBIE slot that has
// just been reaped.
func (t *Table) Free(p *Process) {
	p.State = Unused
	p.PID = 0
	p.Parent = nil
	p.Chan = nil
	p.Killed = false
	p.Workload = nil
}

// Runnable returns every slot currently RUNNABLE. Callers must hold the
// table lock; the returned slice aliases no internal state and is safe to
// use after release, though by then it may be stale.
func (t *Table) Runnable() []*Process {
	return lo.Filter(t.slots, func(p *Process, _ int) bool {
		return p.State == Runnable
	})
}

// Find returns the slot with the given pid, or nil.
func (t *Table) Find(pid int) *Process {
	p, ok := lo.Find(t.slots, func(p *Process) bool { return p.State != Unused && p.PID == pid })
	if !ok {
		return nil
	}
	return p
}

// Children returns every non-UNUSED slot whose Parent is p.
func (t *Table) Children(p *Process) []*Process {
	return lo.Filter(t.slots, func(c *Process, _ int) bool {
		return c.State != Unused && c.Parent == p
	})
}

// Each calls fn for every slot, in table order. Callers must hold the table
// lock if fn reads or writes mutable fields.
func (t *Table) Each(fn func(p *Process)) {
	for _, s := range t.slots {
		fn(s)
	}
}
