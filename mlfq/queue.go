// Package mlfq implements the five-level feedback queue store (section 4.4):
// a fixed pool of NPROC list nodes allocated from a freelist, backing five
// singly linked FIFO queues of non-owning process references. Every
// operation here assumes the caller already holds the process table's lock
// — the store has no locking of its own, exactly as the node pool in
// original_source/proc.c has none beyond the table lock it's called under.
package mlfq

import "github.com/eduos/schedcore/proc"

// Levels is the number of queues (indexed 0..4).
const Levels = proc.MLFQLevels

type node struct {
	used bool
	proc *proc.Process
	next *node
}

// Store is the node pool plus the five queue heads/tails. Its capacity is
// fixed at construction time (NPROC): at most one node per process can
// exist at any moment, so a pool of that size can never be exhausted by a
// correct caller.
type Store struct {
	pool []node

	heads [Levels]*node
	tails [Levels]*node
}

// NewStore builds a store with a pool sized for capacity processes.
func NewStore(capacity int) *Store {
	return &Store{pool: make([]node, capacity)}
}

// alloc finds a free pool node (the palloc equivalent). It returns nil if
// the pool is exhausted, which the design treats as a fatal condition: it
// can only happen if a caller pushed the same process onto two queues at
// once, which is itself an invariant violation.
func (s *Store) alloc() *node {
	for i := range s.pool {
		if !s.pool[i].used {
			s.pool[i].used = true
			s.pool[i].next = nil
			return &s.pool[i]
		}
	}
	return nil
}

// free returns a node to the pool (the pfree equivalent).
func (s *Store) free(n *node) {
	n.used = false
	n.proc = nil
	n.next = nil
}

// Push appends p to the tail of level's queue (FIFO). It reports false only
// if the node pool is exhausted, which signals a caller bug rather than a
// normal runtime condition.
func (s *Store) Push(level int, p *proc.Process) bool {
	n := s.alloc()
	if n == nil {
		return false
	}
	n.proc = p
	if s.tails[level] == nil {
		s.heads[level] = n
		s.tails[level] = n
		return true
	}
	s.tails[level].next = n
	s.tails[level] = n
	return true
}

// Pop removes and returns the head of level's queue, or nil if empty.
func (s *Store) Pop(level int) *proc.Process {
	n := s.heads[level]
	if n == nil {
		return nil
	}
	s.heads[level] = n.next
	if s.heads[level] == nil {
		s.tails[level] = nil
	}
	p := n.proc
	s.free(n)
	return p
}

// Peek returns the head process of level's queue without removing it, or
// nil if empty.
func (s *Store) Peek(level int) *proc.Process {
	if s.heads[level] == nil {
		return nil
	}
	return s.heads[level].proc
}

// Length walks level's queue and counts its entries. The MLFQ policy's
// aging and selection rules work from queue heads and do not call it.
func (s *Store) Length(level int) int {
	n := 0
	for cur := s.heads[level]; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// Remove deletes the first occurrence of p from level's queue, if present,
// and reports whether it found one. Used when a queued process needs to
// leave its queue out of FIFO order (sched.MLFQ.OnWakeup clears any stale
// node this way before re-pushing).
func (s *Store) Remove(level int, p *proc.Process) bool {
	var prev *node
	for cur := s.heads[level]; cur != nil; cur = cur.next {
		if cur.proc == p {
			if prev == nil {
				s.heads[level] = cur.next
			} else {
				prev.next = cur.next
			}
			if cur == s.tails[level] {
				s.tails[level] = prev
			}
			s.free(cur)
			return true
		}
		prev = cur
	}
	return false
}
