package wheel

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// notQueued is the sentinel expiry value meaning "this slot is not
// currently a member of the delay queue" (spec's invariant I5).
const notQueued = int64(-1)

// slot is one ring position in a layer: an intrusive doubly-linked list
// of tasks whose expiries fall within one tick of the slot's aligned
// expiry, plus that expiry itself, used as the slot's priority in the
// shared delay queue. Grounded directly on the teacher's Bucket type.
type slot struct {
	mu sync.Mutex

	tasks    *list.List
	expiryMS int64 // atomic; notQueued when not enqueued

	counter *int64 // shared with the driver; incremented/decremented on add/remove
}

func newSlot(counter *int64) *slot {
	return &slot{
		tasks:    list.New(),
		expiryMS: notQueued,
		counter:  counter,
	}
}

// Expiration returns the slot's current priority, or notQueued.
func (s *slot) Expiration() int64 {
	return atomic.LoadInt64(&s.expiryMS)
}

// setExpiration stores expiryMS and reports whether the stored value
// changed. This is the single synchronization point guaranteeing
// at-most-one enqueue of a given slot per epoch (spec §9): the caller
// enqueues into the delay queue only when this returns true.
func (s *slot) setExpiration(expiryMS int64) bool {
	return atomic.SwapInt64(&s.expiryMS, expiryMS) != expiryMS
}

// add appends t to the slot's task list and publishes the back-pointer.
// The back-pointer and list element must be published before the lock is
// released: a concurrent flush only ever inspects the intrusive list
// under this same lock, so if the publish happened after unlocking, a
// flush could drain the list element and null the back-pointer before
// add's own publish ran, leaving t.slot dangling at s.
func (s *slot) add(t *Task) {
	s.mu.Lock()
	elem := s.tasks.PushBack(t)
	t.setSlot(s)
	setElement(t, elem)
	s.mu.Unlock()

	atomic.AddInt64(s.counter, 1)
}

// remove detaches t from the slot if t still belongs to it, decrementing
// the shared task counter. It is the detach primitive shared by
// cancel/remove and by flush.
func (s *slot) remove(t *Task) bool {
	s.mu.Lock()
	if t.getSlot() != s {
		s.mu.Unlock()
		return false
	}
	s.tasks.Remove(getElement(t))
	t.setSlot(nil)
	setElement(t, nil)
	s.mu.Unlock()

	atomic.AddInt64(s.counter, -1)
	return true
}

// flush drains every task out of the slot and, once unlocked, invokes
// reinsert for each. Detaching under the lock but reinserting after
// unlocking avoids a reinsert (which may call back into slot.add/remove
// of some other slot, or even this one) re-entering this slot's lock.
func (s *slot) flush(reinsert func(*Task)) {
	s.mu.Lock()
	var drained []*Task
	for e := s.tasks.Front(); e != nil; {
		next := e.Next()
		t := e.Value.(*Task)
		s.tasks.Remove(e)
		t.setSlot(nil)
		setElement(t, nil)
		drained = append(drained, t)
		e = next
	}
	s.mu.Unlock()

	atomic.AddInt64(s.counter, -int64(len(drained)))
	s.setExpiration(notQueued)

	for _, t := range drained {
		reinsert(t)
	}
}
