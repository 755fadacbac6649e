package sched

import (
	"testing"

	"github.com/eduos/schedcore/proc"
	"github.com/stretchr/testify/require"
)

func TestMLFQQuantumDoublesPerLevel(t *testing.T) {
	require.Equal(t, 1, Quantum(0))
	require.Equal(t, 2, Quantum(1))
	require.Equal(t, 4, Quantum(2))
	require.Equal(t, 8, Quantum(3))
	require.Equal(t, 16, Quantum(4))
}

func TestMLFQOnWakeupPushesToCurrentLevel(t *testing.T) {
	tbl := proc.NewTable(2)
	m := NewMLFQ(2)
	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable

	m.OnWakeup(tbl, p, 10)
	require.Equal(t, int64(10), p.EnterTime)

	selected := m.Select(tbl, 10)
	require.Equal(t, p, selected)
}

func TestMLFQSelectPrefersLowerLevels(t *testing.T) {
	tbl := proc.NewTable(3)
	m := NewMLFQ(3)

	low, _ := tbl.Alloc(0, true)
	low.State = proc.Runnable
	low.QueueNo = 2
	m.OnWakeup(tbl, low, 0)

	high, _ := tbl.Alloc(0, true)
	high.State = proc.Runnable
	high.QueueNo = 0
	m.OnWakeup(tbl, high, 0)

	require.Equal(t, high, m.Select(tbl, 0))
}

func TestMLFQHeadCleanupDropsSleepingOrZombieHeads(t *testing.T) {
	tbl := proc.NewTable(2)
	m := NewMLFQ(2)

	sleeping, _ := tbl.Alloc(0, true)
	sleeping.QueueNo = 0
	m.q.Push(0, sleeping)
	sleeping.State = proc.Sleeping

	runnable, _ := tbl.Alloc(0, true)
	runnable.State = proc.Runnable
	runnable.QueueNo = 0
	m.q.Push(0, runnable)

	require.Equal(t, runnable, m.Select(tbl, 0))
}

func TestMLFQAgePromotesHeadPastThreshold(t *testing.T) {
	tbl := proc.NewTable(2)
	m := NewMLFQ(2)

	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable
	p.QueueNo = 2
	p.EnterTime = 0
	m.q.Push(2, p)

	m.age(tbl, agingThreshold+1)

	require.Equal(t, 1, p.QueueNo, "a head waiting past the aging threshold must be promoted one level")
	require.Equal(t, int64(agingThreshold+1), p.EnterTime)
}

func TestMLFQAgeNeverPromotesLevelZero(t *testing.T) {
	tbl := proc.NewTable(1)
	m := NewMLFQ(1)

	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable
	p.QueueNo = 0
	p.EnterTime = 0
	m.q.Push(0, p)

	m.age(tbl, agingThreshold+100)

	require.Equal(t, 0, p.QueueNo)
	require.Equal(t, int64(0), p.EnterTime, "level 0 is never aged, so enter_time is untouched")
}

func TestMLFQOnReturnReinsertsSameLevelWithoutChangeQueue(t *testing.T) {
	tbl := proc.NewTable(1)
	m := NewMLFQ(1)

	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable
	p.QueueNo = 1
	p.ChangeQueue = false

	m.OnReturn(tbl, p, 5)

	require.Equal(t, 1, p.QueueNo)
	require.Equal(t, p, m.q.Peek(1))
}

func TestMLFQOnReturnDemotesOnChangeQueue(t *testing.T) {
	tbl := proc.NewTable(1)
	m := NewMLFQ(1)

	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable
	p.QueueNo = 1
	p.ChangeQueue = true

	m.OnReturn(tbl, p, 5)

	require.Equal(t, 2, p.QueueNo)
	require.False(t, p.ChangeQueue)
	require.Equal(t, p, m.q.Peek(2))
}

func TestMLFQOnReturnCapsDemotionAtLastLevel(t *testing.T) {
	tbl := proc.NewTable(1)
	m := NewMLFQ(1)

	p, _ := tbl.Alloc(0, true)
	p.State = proc.Runnable
	p.QueueNo = proc.MLFQLevels - 1
	p.ChangeQueue = true

	m.OnReturn(tbl, p, 5)

	require.Equal(t, proc.MLFQLevels-1, p.QueueNo, "level 4 must never demote past itself")
}
