package ccd

import (
	"image"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// bloomStage spills charge above the bloom level into neighbouring
// sites. Each pass reads a frozen snapshot and scatters into a fresh
// accumulator, so the result does not depend on the order sites are
// visited in.
type bloomStage struct {
	BloomingParams
	axis Axis
}

func newBloomStage(sc SensorConfig, p BloomingParams) *bloomStage {
	s := &bloomStage{BloomingParams: p, axis: p.Axis}
	if s.axis == AxisAuto {
		// An interline sensor's photodiodes only connect along the column.
		s.axis = AxisBoth
		if sc.Architecture == Interline {
			s.axis = AxisVertical
		}
	}
	return s
}

func (s *bloomStage) Name() string  { return "blooming" }
func (s *bloomStage) Enabled() bool { return s.BloomingParams.Enabled }

func (s *bloomStage) neighbours() []image.Point {
	v := []image.Point{{0, -1}, {0, 1}}
	h := []image.Point{{-1, 0}, {1, 0}}
	switch s.axis {
	case AxisVertical:
		return v
	case AxisHorizontal:
		return h
	}
	return append(v, h...)
}

func (s *bloomStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	level := s.Threshold * sf.FullWell

	for _, pl := range sf.Planes {
		for pass := 0; pass < s.Passes; pass++ {
			if !s.spill(pl, level) {
				break
			}
		}
		// Whatever still exceeds the full well after the last pass is
		// lost over the gate.
		pl.Clamp(0, sf.FullWell)
	}
}

// spill does one snapshot-then-scatter pass; it returns false if no
// site was over the level.
func (s *bloomStage) spill(pl *emath.FloatGrid, level float64) bool {
	snap := pl.Copy()
	acc := pl.NewFromThis()
	nbrs := s.neighbours()
	spilled := false

	inBounds := make([]image.Point, 0, len(nbrs))
	for y := 0; y < snap.Dy(); y++ {
		for x := 0; x < snap.Dx(); x++ {
			v := snap.Get(x, y)
			if v <= level {
				acc.Add(x, y, v)
				continue
			}
			spilled = true
			excess := (v - level) * (1 - s.Drain)
			acc.Add(x, y, level)

			inBounds = inBounds[:0]
			for _, n := range nbrs {
				if snap.In(x+n.X, y+n.Y) {
					inBounds = append(inBounds, image.Point{x + n.X, y + n.Y})
				}
			}
			if len(inBounds) == 0 {
				acc.Add(x, y, excess) // Nowhere to go
				continue
			}
			share := excess / float64(len(inBounds))
			for _, n := range inBounds {
				acc.Add(n.X, n.Y, share)
			}
		}
	}

	pl.CopyFrom(acc)
	return spilled
}
