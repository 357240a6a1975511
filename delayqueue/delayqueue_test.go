package delayqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferAndPollNonBlocking(t *testing.T) {
	q := New[string](4)

	_, ok := q.PollNonBlocking(func() int64 { return 0 })
	assert.False(t, ok)

	q.Offer("a", 100)
	q.Offer("b", 50)
	q.Offer("c", 200)

	_, ok = q.PollNonBlocking(func() int64 { return 10 })
	assert.False(t, ok, "head priority 50 is not yet due at now=10")

	v, ok := q.PollNonBlocking(func() int64 { return 50 })
	require.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = q.PollNonBlocking(func() int64 { return 100 })
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = q.PollNonBlocking(func() int64 { return 100 })
	assert.False(t, ok, "c at priority 200 is still not due")
}

func TestPollBlocksUntilDue(t *testing.T) {
	q := New[string](1)
	start := time.Now()
	q.Offer("a", start.Add(40*time.Millisecond).UnixMilli())

	ctx := context.Background()
	v, ok := q.Poll(ctx, func() int64 { return time.Now().UnixMilli() })
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestPollWakesOnNewEarlierHead(t *testing.T) {
	q := New[string](2)
	start := time.Now()
	q.Offer("late", start.Add(2*time.Second).UnixMilli())

	done := make(chan string, 1)
	go func() {
		v, ok := q.Poll(context.Background(), func() int64 { return time.Now().UnixMilli() })
		if ok {
			done <- v
		}
	}()

	time.Sleep(20 * time.Millisecond) // let Poll reach its sleeping state
	q.Offer("early", start.Add(30*time.Millisecond).UnixMilli())

	select {
	case v := <-done:
		assert.Equal(t, "early", v)
	case <-time.After(time.Second):
		t.Fatal("Poll did not wake up for the new earlier head")
	}
}

func TestPollReturnsOnContextCancellation(t *testing.T) {
	q := New[string](1)
	q.Offer("a", time.Now().Add(time.Hour).UnixMilli())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Poll(ctx, func() int64 { return time.Now().UnixMilli() })
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Poll did not return after context cancellation")
	}
}

func TestClearDropsPendingItems(t *testing.T) {
	q := New[string](4)
	q.Offer("a", 0)
	q.Offer("b", 0)
	require.Equal(t, 2, q.Len())

	q.Clear()
	assert.Equal(t, 0, q.Len())
}

func TestConcurrentOffersPreserveOrdering(t *testing.T) {
	q := New[int](100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(p int64) {
			defer wg.Done()
			q.Offer(int(p), p)
		}(int64(i))
	}
	wg.Wait()

	prev := int64(-1)
	for {
		v, ok := q.PollNonBlocking(func() int64 { return 1_000_000 })
		if !ok {
			break
		}
		prev++ // consumed values are dense 0..99 in ascending priority order
		assert.Equal(t, int(prev), v)
	}
	assert.Equal(t, int64(99), prev)
}
