package fiberz

import (
	"sync/atomic"
)

// runQueueCell is one slot of the Vyukov bounded MPMC ring buffer backing
// each scheduling group's run queue (§3 "bounded MPMC run queue"). The
// sequence number is what makes push/pop lock-free: a producer can tell a
// slot is ready to accept its write, and a consumer can tell a slot is
// ready to yield its value, without either side taking a lock.
//
// instealable mirrors §3's `{fiber_ptr, instealable_flag, seq}` triple: a
// fiber pushed with instealable set must never be taken by steal(), only
// by this group's own tryPop.
type runQueueCell struct {
	sequence    atomic.Uint64
	value       *Fiber
	instealable atomic.Bool
}

// runQueue is a fixed-capacity, multi-producer multi-consumer bounded
// queue of ready fibers. capacity must be a power of two. Grounded on the
// Vyukov algorithm named directly by the design (§3): a lock-free bounded
// MPMC ring, built from the well-known ecosystem pattern rather than
// adapted from any single source file.
type runQueue struct {
	cells   []runQueueCell
	mask    uint64
	enqueue atomic.Uint64
	dequeue atomic.Uint64
}

func newRunQueue(capacity int) *runQueue {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		fatalf("fiberz: run queue capacity must be a positive power of two, got %d", capacity)
	}
	q := &runQueue{
		cells: make([]runQueueCell, capacity),
		mask:  uint64(capacity - 1),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

func (q *runQueue) cap() int { return len(q.cells) }

// tryPush attempts to enqueue f without blocking. instealable marks the
// slot so steal() refuses it (§4.3's `push(f, instealable)`). Returns
// false if the queue is full - the caller (Group.enqueue) is responsible
// for the retry-with-backoff policy §7 assigns to run-queue exhaustion.
func (q *runQueue) tryPush(f *Fiber, instealable bool) bool {
	pos := q.enqueue.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.sequence.Load()
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				cell.value = f
				cell.instealable.Store(instealable)
				cell.sequence.Store(pos + 1)
				return true
			}
			pos = q.enqueue.Load()
		case diff < 0:
			return false
		default:
			pos = q.enqueue.Load()
		}
	}
}

// tryBatchPush reserves len(fs) contiguous slots and writes all of fs, or
// none, mirroring §4.3's all-or-nothing `batch_push(begin, end, instealable)`.
// instealable[i] is the flag for fs[i]; the two slices must be the same
// length.
func (q *runQueue) tryBatchPush(fs []*Fiber, instealable []bool) bool {
	n := uint64(len(fs))
	if n == 0 {
		return true
	}
	pos := q.enqueue.Load()
	for {
		fits := true
		for i := uint64(0); i < n; i++ {
			cell := &q.cells[(pos+i)&q.mask]
			if int64(cell.sequence.Load())-int64(pos+i) != 0 {
				fits = false
				break
			}
		}
		if !fits {
			return false
		}
		if q.enqueue.CompareAndSwap(pos, pos+n) {
			for i := uint64(0); i < n; i++ {
				cell := &q.cells[(pos+i)&q.mask]
				cell.value = fs[i]
				cell.instealable.Store(instealable[i])
				cell.sequence.Store(pos + i + 1)
			}
			return true
		}
		pos = q.enqueue.Load()
	}
}

// tryPop attempts to dequeue the oldest ready fiber without blocking. It
// observes the instealable bit but ignores it, per §4.3's `pop()` - only
// steal() refuses instealable slots.
func (q *runQueue) tryPop() (*Fiber, bool) {
	pos := q.dequeue.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.sequence.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if q.dequeue.CompareAndSwap(pos, pos+1) {
				f := cell.value
				cell.value = nil
				cell.sequence.Store(pos + q.mask + 1)
				return f, true
			}
			pos = q.dequeue.Load()
		case diff < 0:
			return nil, false
		default:
			pos = q.dequeue.Load()
		}
	}
}

// steal behaves like tryPop but refuses to consume the head slot when its
// instealable bit is set, leaving it untouched for this queue's own
// workers to drain instead (§4.3's `steal()`, §4.8's `remote_acquire_fiber`).
func (q *runQueue) steal() (*Fiber, bool) {
	pos := q.dequeue.Load()
	for {
		cell := &q.cells[pos&q.mask]
		seq := cell.sequence.Load()
		diff := int64(seq) - int64(pos+1)
		switch {
		case diff == 0:
			if cell.instealable.Load() {
				return nil, false
			}
			if q.dequeue.CompareAndSwap(pos, pos+1) {
				f := cell.value
				cell.value = nil
				cell.sequence.Store(pos + q.mask + 1)
				return f, true
			}
			pos = q.dequeue.Load()
		case diff < 0:
			return nil, false
		default:
			pos = q.dequeue.Load()
		}
	}
}

// len is an approximation - useful only for the depth gauge, never for
// correctness decisions, since enqueue/dequeue are read with no shared
// snapshot.
func (q *runQueue) len() int {
	enq := q.enqueue.Load()
	deq := q.dequeue.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}
