package fiberz

import "context"

// Mutex is a non-recursive fiber-level lock. It never blocks an OS
// thread: a fiber that cannot acquire it parks on the internal wait
// queue and the worker that was running it moves on to another ready
// fiber, exactly as the design's waitable mutex (§4.3) intends.
//
// locked is guarded by q.mu rather than a separate lock, so the
// "check/acquire" and "enqueue" steps in Lock happen under the same
// critical section as Unlock's "release and wake" - the invariant
// parkIf depends on to avoid a lost wakeup.
type Mutex struct {
	q      waitQueue
	locked bool
}

// Lock blocks the calling fiber until it owns the mutex.
func (m *Mutex) Lock(ctx context.Context) {
	for {
		_, waited := parkIf(ctx, &m.q, 0, func() bool {
			if !m.locked {
				m.locked = true
				return false
			}
			return true
		})
		if !waited {
			return
		}
	}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	m.q.mu.Lock()
	defer m.q.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex and wakes one waiter, if any. Unlocking an
// unlocked Mutex is misuse and aborts, per §7's error taxonomy.
func (m *Mutex) Unlock() {
	m.q.mu.Lock()
	if !m.locked {
		m.q.mu.Unlock()
		fatalf("fiberz: unlock of unlocked Mutex")
	}
	m.locked = false
	m.q.mu.Unlock()
	m.q.wakeOne()
}
