// Package randutil builds seeded math/rand/v2 generators. The toss, the
// timeout fallback draws and room code generation all run off generators
// created here, so a fixed seed reproduces a full server run.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a generator seeded deterministically from one int64. The
// two 64-bit PCG seeds are derived with a splitmix64 finalizer so nearby
// seeds still produce unrelated sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
