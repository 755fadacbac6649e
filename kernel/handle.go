package kernel

import (
	"runtime"

	"github.com/eduos/schedcore/proc"
)

// handle is the concrete proc.Handle a running workload uses to call back
// into the kernel. Each simulated process gets its own handle, bound to
// its *proc.Process, so workload functions never need to pass a pid
// around to identify themselves.
type handle struct {
	k *Kernel
	p *proc.Process
}

var _ proc.Handle = (*handle)(nil)

func (h *handle) PID() int { return h.p.PID }

// Yield implements yield (section 4.5): mark RUNNABLE, hand control back
// to the scheduler, and block until redispatched.
func (h *handle) Yield() { h.k.yieldProcess(h.p) }

// Sleep implements sleep(chan) (section 4.5), simplified to drop the
// external-lock parameter: in this simulation the table lock is the only
// lock a workload ever holds, so the "acquire table lock, release external
// lock" ordering the source uses to avoid missed wakeups collapses to
// nothing extra — Sleep already takes the table lock itself before
// changing state.
func (h *handle) Sleep(chanID any) {
	h.k.table.Lock()
	h.p.Chan = chanID
	h.p.State = proc.Sleeping
	h.k.table.Unlock()

	h.p.Park()
	h.p.AwaitResume()

	h.k.table.Lock()
	h.p.Chan = nil
	h.k.table.Unlock()
}

// Exit implements exit (section 4.5) and never returns to the caller: the
// workload goroutine terminates via runtime.Goexit immediately after the
// kernel records the exit.
func (h *handle) Exit(status int) {
	h.k.exit(h.p, status)
	runtime.Goexit()
}

func (h *handle) Killed() bool {
	h.k.table.Lock()
	defer h.k.table.Unlock()
	return h.p.Killed
}

// Fork implements fork (section 6): allocate a child slot, attach the
// given workload, mark it RUNNABLE, and start its goroutine.
func (h *handle) Fork(workload func(proc.Handle)) int {
	return h.k.fork(h.p, workload)
}

func (h *handle) Wait() int {
	pid, _, _ := h.k.waitx(h.p)
	return pid
}

func (h *handle) Waitx() (pid int, wtime int64, rtime int64) {
	return h.k.waitx(h.p)
}

func (h *handle) SetPriority(newPriority, pid int) int {
	return h.k.setPriority(h.p, newPriority, pid)
}

// fork is the Kernel-side implementation behind Handle.Fork.
func (k *Kernel) fork(parent *proc.Process, workload func(proc.Handle)) int {
	child, err := k.table.Alloc(k.tickSnapshot(), k.mlfqActive())
	if err != nil {
		return -1
	}

	k.table.Lock()
	child.Parent = parent
	child.Workload = workload
	child.State = proc.Runnable
	k.policy.OnWakeup(k.table, child, k.ticks)
	pid := child.PID
	k.table.Unlock()

	k.wg.Add(1)
	go k.runProcess(child)
	k.activity.Broadcast()
	return pid
}
