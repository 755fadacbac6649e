package cmd

import "github.com/eduos/schedcore/proc"

// cpuBurn returns a workload that spins for the given number of rounds,
// calling h.Yield() once per round. The Yield call is this simulation's
// only safe point: it is where a quantum-expired MLFQ process actually
// gives up the CPU, and where Handle.Killed is observed (see benchmark.c's
// "for(k<20) for(i<1e7);" loop, which this models at round granularity
// rather than instruction count).
func cpuBurn(rounds int) func(proc.Handle) {
	return func(h proc.Handle) {
		for i := 0; i < rounds; i++ {
			if h.Killed() {
				return
			}
			h.Yield()
		}
	}
}

// ioWait returns a workload that alternates between a burst of CPU work
// and sleeping on chanID, waking only when something calls Wakeup(chanID).
// It models an I/O-bound job the way PBS and MLFQ are meant to be told
// apart from a CPU-bound one.
func ioWait(chanID any, rounds int) func(proc.Handle) {
	return func(h proc.Handle) {
		for i := 0; i < rounds; i++ {
			if h.Killed() {
				return
			}
			h.Yield()
			h.Sleep(chanID)
		}
	}
}

// foreverBurn returns a workload that keeps yielding until killed, for the
// dashboard demo where processes need to stay visible in the table rather
// than run to completion.
func foreverBurn() func(proc.Handle) {
	return func(h proc.Handle) {
		for {
			if h.Killed() {
				return
			}
			h.Yield()
		}
	}
}
