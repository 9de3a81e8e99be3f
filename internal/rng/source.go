// Package rng provides the deterministic draw source that powers every
// stochastic decision in the simulation. Draws are produced by a
// one-way chained hash over a (seed, tick, op) triple: consuming a draw
// replaces the seed with the drawn value, so the emitted sequence is a
// pure function of the initial seed and the exact order of calls.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
)

// Source yields reproducible uniform values. The call order is part of
// the reproducibility contract: reordering draws changes the sequence.
type Source interface {
	// Draw returns a value uniform over [0, mod) and advances the
	// chained seed.
	Draw(mod uint64) uint64
	// Float64 returns a value uniform over [0, 1) with six decimal
	// digits of resolution.
	Float64() float64
}

// Chained is the hash-chain Source. The tick and op counters are set by
// the simulation driver (tick per simulation step, op per allocated
// order id) so that draws are salted by simulation progress.
type Chained struct {
	seed uint64
	tick uint64
	op   uint64
}

// NewChained creates a source with the given initial seed.
func NewChained(seed uint64) *Chained {
	return &Chained{seed: seed}
}

// SetTick sets the tick-counter component of the draw state.
func (c *Chained) SetTick(tick uint64) {
	c.tick = tick
}

// SetOp sets the operation-counter component of the draw state.
func (c *Chained) SetOp(op uint64) {
	c.op = op
}

// Seed returns the current chained seed.
func (c *Chained) Seed() uint64 {
	return c.seed
}

// Draw hashes the (seed, tick, op) triple, adopts the first eight
// digest bytes as the next seed, and returns that value reduced to the
// requested modulus.
func (c *Chained) Draw(mod uint64) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], c.seed)
	binary.BigEndian.PutUint64(buf[8:16], c.tick)
	binary.BigEndian.PutUint64(buf[16:24], c.op)

	sum := sha256.Sum256(buf[:])
	value := binary.BigEndian.Uint64(sum[:8])

	c.seed = value
	return value % mod
}

// Float64 draws a uniform value in [0, 1).
func (c *Chained) Float64() float64 {
	return float64(c.Draw(1000000)) / 1000000.0
}
