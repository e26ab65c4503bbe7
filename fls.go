package fiberz

// flsInlineSlots is the number of fiber-local slots stored inline on the
// Fiber struct before falling back to the overflow map. Matches the
// design's "inline fixed-size slots... plus overflow hash maps keyed by
// slot index."
const flsInlineSlots = 8

type flsEntry struct {
	value   interface{}
	destroy func(interface{})
}

// flsTable is a fiber's fiber-local-storage backing store. It is never
// touched by more than one goroutine at a time - a fiber's own dedicated
// goroutine is the only reader/writer - so, per §5's resource policy, it
// needs no lock of its own.
type flsTable struct {
	overflow  map[int]flsEntry
	inline    [flsInlineSlots]flsEntry
	inlineSet [flsInlineSlots]bool
}

func (t *flsTable) get(slot int) (interface{}, bool) {
	if slot < flsInlineSlots {
		if t.inlineSet[slot] {
			return t.inline[slot].value, true
		}
		return nil, false
	}
	e, ok := t.overflow[slot]
	return e.value, ok
}

func (t *flsTable) set(slot int, value interface{}, destroy func(interface{})) {
	if slot < flsInlineSlots {
		t.inline[slot] = flsEntry{value: value, destroy: destroy}
		t.inlineSet[slot] = true
		return
	}
	if t.overflow == nil {
		t.overflow = make(map[int]flsEntry)
	}
	t.overflow[slot] = flsEntry{value: value, destroy: destroy}
}

// destroyAll runs every slot's owning destructor exactly once. Called when
// a fiber dies, on the worker side per the "free on the master, never on
// the dying stack" rule (see Worker.resumeOne).
func (t *flsTable) destroyAll() {
	for i := range t.inline {
		if t.inlineSet[i] {
			if d := t.inline[i].destroy; d != nil {
				d(t.inline[i].value)
			}
			t.inline[i] = flsEntry{}
			t.inlineSet[i] = false
		}
	}
	for slot, e := range t.overflow {
		if e.destroy != nil {
			e.destroy(e.value)
		}
		delete(t.overflow, slot)
	}
}

// FiberLocal is fiber-local storage with lazy per-fiber initialization on
// first access, matching the external interface's `fiber_local<T>`.
//
// A FiberLocal must be read/written from inside a fiber (Current(ctx) must
// resolve); reading it from outside a fiber is a misuse and aborts.
type FiberLocal[T any] struct {
	init func() T
	slot int
}

// NewFiberLocal allocates a new fiber-local slot. init, if non-nil, is
// called at most once per fiber, on that fiber's first Get.
func NewFiberLocal[T any](init func() T) *FiberLocal[T] {
	return &FiberLocal[T]{slot: flsSlots.alloc(), init: init}
}

// Get returns this fiber's value, initializing it on first access.
func (l *FiberLocal[T]) Get(ctx ctxLike) T {
	f := mustCurrent(ctx)
	if v, ok := f.fls.get(l.slot); ok {
		return v.(T) //nolint:forcetypeassert // slot ownership is exclusive to this FiberLocal[T]
	}
	var val T
	if l.init != nil {
		val = l.init()
	}
	f.fls.set(l.slot, val, nil)
	return val
}

// Set overwrites this fiber's value without running init.
func (l *FiberLocal[T]) Set(ctx ctxLike, v T) {
	f := mustCurrent(ctx)
	f.fls.set(l.slot, v, nil)
}

// Close releases the slot index for reuse. Only safe once no live fiber
// still references this FiberLocal.
func (l *FiberLocal[T]) Close() {
	flsSlots.release(l.slot)
}
