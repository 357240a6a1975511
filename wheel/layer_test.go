package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQueue captures every slot/priority offered to it, standing in
// for the real delay queue so layer tests don't need a driver loop.
type recordingQueue struct {
	offers []int64
}

func (r *recordingQueue) offerSlot(s *slot, priorityMS int64) {
	r.offers = append(r.offers, priorityMS)
}

func TestLayerAddFitsCurrentLayer(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter)

	tk := newTask(5000, func() error { return nil }, nil)
	ok := l.add(tk)

	require.True(t, ok)
	assert.Equal(t, int64(1), counter)
	require.Len(t, q.offers, 1)
	assert.Equal(t, int64(5000), q.offers[0])
}

func TestLayerAddRejectsExpiredTask(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter)

	tk := newTask(500, func() error { return nil }, nil) // < needle+tick
	ok := l.add(tk)

	assert.False(t, ok)
	assert.Equal(t, int64(0), counter)
}

func TestLayerAddCascadesToOverflow(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter) // span = 10_000ms

	tk := newTask(15000, func() error { return nil }, nil)
	ok := l.add(tk)

	require.True(t, ok)
	require.NotNil(t, l.next)
	assert.Equal(t, l.spanMS, l.next.tickMS)
}

func TestLayerStepAdvancesNeedleAndCascadesToNext(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter)
	// force overflow creation
	l.add(newTask(15000, func() error { return nil }, nil))

	l.step(12500)

	assert.Equal(t, int64(12000), l.needle())
	assert.Equal(t, int64(10000), l.next.needle())
}

func TestLayerStepIsMonotonic(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter)

	l.step(5000)
	assert.Equal(t, int64(5000), l.needle())

	l.step(3000) // earlier timestamp must not move the needle backwards
	assert.Equal(t, int64(5000), l.needle())
}

func TestLayerAddRejectsNonWaitTask(t *testing.T) {
	var counter int64
	q := &recordingQueue{}
	l := newLayer(1000, 10, 0, q, &counter)

	tk := newTask(5000, func() error { return nil }, nil)
	tk.Cancel()

	ok := l.add(tk)
	assert.False(t, ok)
}
