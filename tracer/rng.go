package tracer

import "math/rand"

// PerRayRNG derives a deterministic *rand.Rand for one ray from its id,
// its pixel coordinate, and a global per-frame seed, so that rendering is
// reproducible regardless of thread scheduling: RNG state lives per-ray
// rather than per-worker. This uses the standard library's math/rand (see
// DESIGN.md for why no third-party PRNG is wired in here).
//
// The seed mixing is a splitmix64-style avalanche over the three inputs —
// a full Mersenne-Twister port is unnecessary here since Go's math/rand
// already provides a reusable, allocation-light generator.
func PerRayRNG(rayID uint32, pixelX, pixelY int32, frameSeed uint64) *rand.Rand {
	return rand.New(rand.NewSource(mixSeed(rayID, pixelX, pixelY, frameSeed)))
}

func mixSeed(rayID uint32, pixelX, pixelY int32, frameSeed uint64) int64 {
	h := frameSeed
	h = splitmix64(h ^ uint64(rayID)*0x9e3779b97f4a7c15)
	h = splitmix64(h ^ uint64(uint32(pixelX))*0xbf58476d1ce4e5b9)
	h = splitmix64(h ^ uint64(uint32(pixelY))*0x94d049bb133111eb)
	return int64(h)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
