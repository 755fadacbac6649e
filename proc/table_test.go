package proc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocAssignsSequentialPIDsAndDefaults(t *testing.T) {
	tbl := NewTable(4)

	p1, err := tbl.Alloc(0, false)
	require.NoError(t, err)
	require.Equal(t, Embryo, p1.State)
	require.Equal(t, DefaultPriority, p1.Priority)
	require.Equal(t, NoQueue, p1.QueueNo)

	p2, err := tbl.Alloc(0, false)
	require.NoError(t, err)
	require.NotEqual(t, p1.PID, p2.PID)
}

func TestAllocSetsQueueZeroUnderMLFQ(t *testing.T) {
	tbl := NewTable(4)
	p, err := tbl.Alloc(0, true)
	require.NoError(t, err)
	require.Equal(t, 0, p.QueueNo)
}

func TestAllocReturnsErrTableFullWhenExhausted(t *testing.T) {
	tbl := NewTable(2)
	_, err := tbl.Alloc(0, false)
	require.NoError(t, err)
	_, err = tbl.Alloc(0, false)
	require.NoError(t, err)

	_, err = tbl.Alloc(0, false)
	require.Error(t, err)
}

func TestFreeReturnsSlotToUnusedAndReusable(t *testing.T) {
	tbl := NewTable(1)
	p, err := tbl.Alloc(0, false)
	require.NoError(t, err)
	tbl.Free(p)
	require.Equal(t, Unused, p.State)

	_, err = tbl.Alloc(0, false)
	require.NoError(t, err, "a freed slot must be reusable")
}

func TestRunnableFiltersByState(t *testing.T) {
	tbl := NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p1.State = Runnable
	p2, _ := tbl.Alloc(0, false)
	p2.State = Sleeping
	p3, _ := tbl.Alloc(0, false)
	p3.State = Runnable

	runnable := tbl.Runnable()
	require.Len(t, runnable, 2)
	require.Contains(t, runnable, p1)
	require.Contains(t, runnable, p3)
}

func TestFindLocatesByPID(t *testing.T) {
	tbl := NewTable(3)
	p1, _ := tbl.Alloc(0, false)
	p2, _ := tbl.Alloc(0, false)

	require.Equal(t, p2, tbl.Find(p2.PID))
	require.Nil(t, tbl.Find(p1.PID+1000))
}

func TestChildrenFindsOnlyDirectChildren(t *testing.T) {
	tbl := NewTable(4)
	parent, _ := tbl.Alloc(0, false)
	child1, _ := tbl.Alloc(0, false)
	child1.Parent = parent
	child2, _ := tbl.Alloc(0, false)
	child2.Parent = parent
	unrelated, _ := tbl.Alloc(0, false)
	unrelated.Parent = nil

	children := tbl.Children(parent)
	require.Len(t, children, 2)
	require.Contains(t, children, child1)
	require.Contains(t, children, child2)
}
