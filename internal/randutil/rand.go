// Package randutil centralises how random sources are seeded so that
// every sampling path in the equity engine is reproducible from a
// single int64. The core never touches a process-wide RNG.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64, deriving the two 64-bit words required by the rand/v2 PCG so
// that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Fork derives an independent child source from parent. Equity workers
// each take a fork so sampling order stays deterministic for a fixed
// worker count.
func Fork(parent *rand.Rand) *rand.Rand {
	return New(int64(parent.Uint64()))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
