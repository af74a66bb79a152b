package ccd

import (
	"context"
	"image"
	"sync"
)

// A Session renders the same pipeline over and over, as an interactive
// front end would while its user drags a slider. It decides each
// render's seed, and numbers the renders so a caller that gets results
// back out of order can drop the stale ones.
type Session struct {
	Pipeline *Pipeline
	BaseSeed uint64
	Policy   SeedPolicy

	mu          sync.Mutex
	invocations uint64
	generation  uint64
}

// SessionResult pairs a render with the generation that asked for it.
type SessionResult struct {
	Generation uint64
	*Result
}

func NewSession(pl *Pipeline, seed uint64, policy SeedPolicy) *Session {
	return &Session{Pipeline: pl, BaseSeed: seed, Policy: policy}
}

// nextSeed picks the seed for a new render, and moves the
// session on.
func (s *Session) nextSeed() (seed, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed = s.BaseSeed
	if s.Policy == SeedAdvance {
		seed += s.invocations
	}
	s.invocations++
	s.generation++
	return seed, s.generation
}

func (s *Session) Render(ctx context.Context, img image.Image) (*SessionResult, error) {
	seed, gen := s.nextSeed()
	res, err := s.Pipeline.Run(ctx, img, seed)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Generation: gen, Result: res}, nil
}

// IsCurrent is true if no render has been started since generation gen.
func (s *Session) IsCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// Reset sets the invocation counter back to zero, so an Advance session
// replays its seeds from the start.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invocations = 0
}
