// Package clock provides the monotonic millisecond counter and uniform
// integer RNG shared by every subsystem, plus a fake implementation so
// tests can drive both deterministically.
package clock

import (
	"math/rand"
	"time"
)

// Clock is the monotonic-ms time source and uniform RNG the core logic
// depends on. All tick comparisons are written as now-last >= interval
// so unsigned arithmetic stays correct even if the counter wraps.
type Clock interface {
	NowMs() uint64
	// Uniform returns a uniformly distributed integer in [lo, hi).
	Uniform(lo, hi int) int
}

// Real is a Clock backed by the host's monotonic clock and math/rand,
// seeded once at boot. Determinism is not required.
type Real struct {
	start time.Time
	rng   *rand.Rand
}

// NewReal creates a Real clock, zeroing NowMs() at construction time.
func NewReal(seed int64) *Real {
	return &Real{
		start: time.Now(),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (c *Real) NowMs() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}

func (c *Real) Uniform(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Intn(hi-lo)
}

// Fake is a Clock for tests: NowMs is advanced explicitly and Uniform
// draws are queued up front so test scenarios are fully deterministic.
type Fake struct {
	ms      uint64
	draws   []int
	drawIdx int
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) NowMs() uint64 { return f.ms }

// Advance moves the fake clock forward by delta milliseconds.
func (f *Fake) Advance(delta uint64) { f.ms += delta }

// Set pins the fake clock to an absolute ms value.
func (f *Fake) Set(ms uint64) { f.ms = ms }

// QueueUniform arranges for the next call(s) to Uniform to return the
// given value(s) in order, regardless of the requested [lo, hi) range.
func (f *Fake) QueueUniform(values ...int) {
	f.draws = append(f.draws, values...)
}

func (f *Fake) Uniform(lo, hi int) int {
	if f.drawIdx < len(f.draws) {
		v := f.draws[f.drawIdx]
		f.drawIdx++
		return v
	}
	if hi <= lo {
		return lo
	}
	return lo
}
