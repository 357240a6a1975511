package wheel

import (
	"sync"
	"sync/atomic"
)

// layer is one ring of slots at a fixed granularity, lazily chained to a
// coarser next layer. Grounded on the teacher's TimeWheel type, with the
// boolean "added"/overflow trick replaced by an explicit mutex for
// next-layer creation (the teacher's CAS-on-unsafe.Pointer
// version works for a single field; a mutex reads just as cheaply here
// and avoids a second unsafe.Pointer in the core for no real gain).
type layer struct {
	tickMS    int64
	slotCount int64
	spanMS    int64

	slots []*slot

	needleMS int64 // atomic; floor-aligned instant of the due slot

	nextMu sync.Mutex
	next   *layer

	queue   queueOfferer
	counter *int64
}

// queueOfferer is the minimal surface layer needs from the driver's
// delay queue: offering a slot at an absolute millisecond priority.
// Kept as its own tiny interface so layer never depends on package
// delayqueue's type parameters directly.
type queueOfferer interface {
	offerSlot(s *slot, priorityMS int64)
}

func newLayer(tickMS, slotCount, startMS int64, queue queueOfferer, counter *int64) *layer {
	slots := make([]*slot, slotCount)
	for i := range slots {
		slots[i] = newSlot(counter)
	}
	return &layer{
		tickMS:    tickMS,
		slotCount: slotCount,
		spanMS:    tickMS * slotCount,
		slots:     slots,
		needleMS:  truncate(startMS, tickMS),
		queue:     queue,
		counter:   counter,
	}
}

func truncate(x, m int64) int64 {
	if m <= 0 {
		return x
	}
	r := x % m
	if r < 0 {
		r += m
	}
	return x - r
}

func (l *layer) needle() int64 {
	return atomic.LoadInt64(&l.needleMS)
}

// add places t into this layer if it fits, cascading to a lazily created
// coarser next layer otherwise. It returns false when the task is no
// longer in Wait, or has already expired relative to this layer's
// needle — callers (the driver's reinsert) treat false as "fire now."
func (l *layer) add(t *Task) bool {
	if t.State() != Wait {
		return false
	}

	needle := l.needle()
	if t.ExpiryMS() < needle+l.tickMS {
		return false
	}

	if t.ExpiryMS() < needle+l.spanMS {
		tickIndex := t.ExpiryMS() / l.tickMS
		slotIndex := tickIndex % l.slotCount
		s := l.slots[slotIndex]
		s.add(t)
		slotExpiry := tickIndex * l.tickMS
		if s.setExpiration(slotExpiry) {
			l.queue.offerSlot(s, slotExpiry)
		}
		return true
	}

	return l.nextLayer().add(t)
}

// nextLayer returns the coarser next layer, creating it on first use
// (spec's "avoid creating layers past the maximum expiry ever inserted").
// The check and the creation both run under nextMu, which is taken on
// every call; there is no unlocked fast path for an existing layer.
func (l *layer) nextLayer() *layer {
	l.nextMu.Lock()
	defer l.nextMu.Unlock()
	if l.next == nil {
		l.next = newLayer(l.spanMS, l.slotCount, l.needle(), l.queue, l.counter)
	}
	return l.next
}

// step advances the needle to the tick-aligned instant containing
// timestampMS, and recursively steps the next layer. Only the driver,
// under the writer lock, calls this, so needleMS only ever moves
// forward.
func (l *layer) step(timestampMS int64) {
	if timestampMS >= l.needle()+l.tickMS {
		atomic.StoreInt64(&l.needleMS, truncate(timestampMS, l.tickMS))
		l.nextMu.Lock()
		next := l.next
		l.nextMu.Unlock()
		if next != nil {
			next.step(timestampMS)
		}
	}
}

// occupiedSlots counts non-empty slots, for metrics only.
func (l *layer) occupiedSlots() int {
	n := 0
	for _, s := range l.slots {
		s.mu.Lock()
		if s.tasks.Len() > 0 {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// chain snapshots this layer and every already-created coarser layer, for
// metrics only. Layers are never destroyed, so the snapshot is stable
// going forward even though more layers may be appended concurrently.
func (l *layer) chain() []*layer {
	chain := []*layer{l}
	cur := l
	for {
		cur.nextMu.Lock()
		next := cur.next
		cur.nextMu.Unlock()
		if next == nil {
			return chain
		}
		chain = append(chain, next)
		cur = next
	}
}
