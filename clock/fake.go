package clock

import "sync/atomic"

// Fake is a settable clock for deterministic tests. It has no runtime
// cost, so it is not guarded by a build tag and any package's tests can
// use it. Package wheel's scenario tests run on the wall clock instead.
type Fake struct {
	ms int64
}

// NewFake returns a Fake clock starting at startMS.
func NewFake(startMS int64) *Fake {
	f := &Fake{}
	atomic.StoreInt64(&f.ms, startMS)
	return f
}

// NowMS implements Clock.
func (f *Fake) NowMS() int64 {
	return atomic.LoadInt64(&f.ms)
}

// Set pins the clock to ms.
func (f *Fake) Set(ms int64) {
	atomic.StoreInt64(&f.ms, ms)
}

// Advance moves the clock forward by deltaMS and returns the new value.
func (f *Fake) Advance(deltaMS int64) int64 {
	return atomic.AddInt64(&f.ms, deltaMS)
}
