package sched

import (
	"testing"

	"github.com/eduos/schedcore/proc"
	"github.com/stretchr/testify/require"
)

func TestPBSSelectPrefersLowerPriorityNumber(t *testing.T) {
	tbl := proc.NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p1.State = proc.Runnable
	p1.Priority = 60
	p2, _ := tbl.Alloc(0, false)
	p2.State = proc.Runnable
	p2.Priority = 20

	require.Equal(t, p2, PBS{}.Select(tbl, 0))
}

func TestPBSSelectBreaksTiesByLowerChance(t *testing.T) {
	tbl := proc.NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p1.State = proc.Runnable
	p1.Priority = 60
	p1.Chance = 3
	p2, _ := tbl.Alloc(0, false)
	p2.State = proc.Runnable
	p2.Priority = 60
	p2.Chance = 1

	require.Equal(t, p2, PBS{}.Select(tbl, 0))
}

func TestPBSOnDispatchIncrementsChance(t *testing.T) {
	tbl := proc.NewTable(1)
	p, _ := tbl.Alloc(0, false)
	p.Chance = 4
	PBS{}.OnDispatch(tbl, p, 0)
	require.Equal(t, 5, p.Chance)
}

func TestPBSOnReturnResetsChanceWhenSamePriorityBandAllEqual(t *testing.T) {
	tbl := proc.NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p1.State = proc.Runnable
	p1.Priority = 60
	p1.Chance = 2
	p2, _ := tbl.Alloc(0, false)
	p2.State = proc.Runnable
	p2.Priority = 60
	p2.Chance = 2

	PBS{}.OnReturn(tbl, p1, 0)

	require.Equal(t, 0, p1.Chance)
	require.Equal(t, 0, p2.Chance)
}

func TestPBSOnReturnLeavesChanceAloneWhenBandIsUneven(t *testing.T) {
	tbl := proc.NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p1.State = proc.Runnable
	p1.Priority = 60
	p1.Chance = 2
	p2, _ := tbl.Alloc(0, false)
	p2.State = proc.Runnable
	p2.Priority = 60
	p2.Chance = 5

	PBS{}.OnReturn(tbl, p1, 0)

	require.Equal(t, 2, p1.Chance, "chance must not reset when a same-priority sibling differs")
	require.Equal(t, 5, p2.Chance)
}
