// Package rng provides the core randomness abstraction for the Covenfall
// round-resolution engine. Every probabilistic mechanic (outcome tiers,
// corruption spread, detection rolls, ultra-fail redirection) draws through a
// Source so that round processing is replayable given a fixed seed sequence.
package rng

// Source is the randomness provider for the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int

	// Float64 returns a uniform random value in [0.0, 1.0).
	Float64() float64
}
