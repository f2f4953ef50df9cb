package location

import (
	"context"
	"math/rand"
	"sync"
)

// Position is one sampled coordinate. Approximate marks a degraded
// fallback (last-known or campus seed), never a real device fix — the
// distinction stays explicit even where the UI does not surface it yet.
type Position struct {
	Latitude    float64
	Longitude   float64
	Approximate bool
}

// Source provides the current device position.
type Source interface {
	Current(ctx context.Context) (Position, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Position, error)

func (f SourceFunc) Current(ctx context.Context) (Position, error) { return f(ctx) }

// FallbackSource wraps a device source and degrades gracefully: when the
// device cannot produce a fix it returns the last known position, or a
// jittered campus-seed coordinate when nothing was ever sampled. The
// fallback result is always tagged Approximate.
type FallbackSource struct {
	device Source
	seed   Position

	mu   sync.Mutex
	last *Position
}

func NewFallbackSource(device Source, seedLat, seedLon float64) *FallbackSource {
	return &FallbackSource{
		device: device,
		seed:   Position{Latitude: seedLat, Longitude: seedLon},
	}
}

func (s *FallbackSource) Current(ctx context.Context) (Position, error) {
	pos, err := s.device.Current(ctx)
	if err == nil {
		pos.Approximate = false
		s.mu.Lock()
		cp := pos
		s.last = &cp
		s.mu.Unlock()
		return pos, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		return Position{Latitude: s.last.Latitude, Longitude: s.last.Longitude, Approximate: true}, nil
	}
	// Roughly a city block of jitter around the seed.
	return Position{
		Latitude:    s.seed.Latitude + (rand.Float64()-0.5)*0.002,
		Longitude:   s.seed.Longitude + (rand.Float64()-0.5)*0.002,
		Approximate: true,
	}, nil
}
