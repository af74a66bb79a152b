package ccd

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is the seeded random source a render threads through its
// stages. Nothing in the pipeline touches a global generator, so equal
// seeds give bit-identical frames.
type Rand struct {
	*rand.Rand
	src  rand.Source
	seed uint64
}

func NewRand(seed uint64) *Rand {
	src := rand.NewSource(seed)
	return &Rand{Rand: rand.New(src), src: src, seed: seed}
}

// Derive returns an independent generator for a sub-task (a stage, or a
// row within a stage). It only depends on the parent's seed, never on
// how many numbers the parent has drawn, so rows can be processed in
// any order or in parallel.
func (r *Rand) Derive(salt uint64, index int) *Rand {
	return NewRand(mix64(r.seed ^ mix64(salt*0x9e3779b97f4a7c15+uint64(index))))
}

// splitmix64 finalizer
func mix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Chance is true with probability p.
func (r *Rand) Chance(p float64) bool {
	return p > 0 && r.Float64() < p
}

func (r *Rand) Poisson(lambda float64) float64 {
	switch {
	case math.IsNaN(lambda), lambda <= 0:
		return 0
	case lambda > 1e6: // Normal is indistinguishable here, and much cheaper
		return math.Max(0, r.Normal(lambda, math.Sqrt(lambda)))
	}
	return distuv.Poisson{Lambda: lambda, Src: r.src}.Rand()
}

func (r *Rand) Normal(mu, sigma float64) float64 {
	if sigma <= 0 || math.IsNaN(sigma) {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: r.src}.Rand()
}

// Between returns an int in [lo, hi].
func (r *Rand) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Sign is -1 or +1.
func (r *Rand) Sign() int {
	if r.Uint64()&1 == 0 {
		return -1
	}
	return 1
}
