package ccd

import (
	"math"
)

// hclockStage shifts each row out of the serial register, site by site.
// It has the same charge trap as the vertical clock, plus the
// amplifier ringing that follows a large step, plus clock faults.
type hclockStage struct {
	HClockParams
	cte float64
}

func newHClockStage(sc SensorConfig, p HClockParams) *hclockStage {
	s := &hclockStage{HClockParams: p, cte: p.CTE}
	if s.cte == 0 {
		s.cte = sc.CTEHorizontal
	}
	return s
}

func (s *hclockStage) Name() string  { return "hclock" }
func (s *hclockStage) Enabled() bool { return s.HClockParams.Enabled }

// leftToRight says whether row y leaves the register through its left end.
func (s *hclockStage) leftToRight(y int) bool {
	switch s.Direction {
	case RightToLeft:
		return false
	case Bidirectional:
		return y%2 == 0
	}
	return true
}

func (s *hclockStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	fw := sf.FullWell
	w, h := sf.Dx(), sf.Dy()

	for p, pl := range sf.Planes {
		p, pl := p, pl
		parallelRows(h, func(y0, y1 int) {
			seq := make([]float64, w)
			ring := make([]float64, w)
			for y := y0; y < y1; y++ {
				row := pl.Row(y)
				// Work on the row in readout order, so index 0 is the
				// site nearest the output.
				ltr := s.leftToRight(y)
				for k := range seq {
					seq[k] = row[s.site(k, w, ltr)]
				}

				s.transfer(seq)
				s.ringing(seq, ring, fw)
				s.pixelGlitches(seq, ring, rng.Derive(saltHClock, p*h+y))

				bad := 0
				for k, v := range seq {
					switch {
					case math.IsNaN(v) || math.IsInf(v, 0):
						v = 0
						bad++
					case v < 0:
						v = 0
					}
					row[s.site(k, w, ltr)] = v
				}
				f.Degeneracies.Add(s.Name(), bad)
			}
		})
	}
}

func (s *hclockStage) site(k, w int, ltr bool) int {
	if ltr {
		return k
	}
	return w - 1 - k
}

func (s *hclockStage) transfer(seq []float64) {
	c := s.cte
	if c >= 1 {
		return
	}
	deferred := 0.0
	for k, v := range seq {
		seq[k] = c*v + (1-c)*deferred
		deferred = c*deferred + (1-c)*v
	}
}

// ringing adds a damped ring after every step bigger than the threshold.
// Steps are measured on the row before any ring is added, so rings
// don't trigger further rings.
func (s *hclockStage) ringing(seq, ring []float64, fw float64) {
	if s.Ringing <= 0 || s.RingLength <= 0 {
		return
	}
	for k := range ring {
		ring[k] = 0
	}
	threshold := s.RingThreshold * fw
	for k := 1; k < len(seq); k++ {
		if step := seq[k] - seq[k-1]; math.Abs(step) > threshold {
			s.addRing(ring, k, s.Ringing*step)
		}
	}
	for k := range seq {
		seq[k] += ring[k]
	}
}

// addRing lays a*exp(-n/tau)*cos(pi*n/period) over the sites after k.
func (s *hclockStage) addRing(ring []float64, k int, a float64) {
	for n := 1; n <= s.RingLength && k+n < len(ring); n++ {
		amp := a * math.Exp(-float64(n)/s.RingDecay)
		if s.RingPeriod > 0 {
			amp *= math.Cos(math.Pi * float64(n) / s.RingPeriod)
		}
		ring[k+n] += amp
	}
}

func (s *hclockStage) pixelGlitches(seq, ring []float64, rng *Rand) {
	if s.PixelGlitchProb <= 0 {
		return
	}
	kinds := s.PixelGlitches
	if len(kinds) == 0 {
		kinds = []PixelGlitch{PixelSkip, PixelRepeat, PixelOffset, PixelRing}
	}
	w := len(seq)
	for k := 0; k < w; k++ {
		if !rng.Chance(s.PixelGlitchProb) {
			continue
		}
		switch kinds[rng.Intn(len(kinds))] {
		case PixelSkip:
			src := k - 1
			if src < 0 {
				src = min(1, w-1)
			}
			seq[k] = seq[src]
		case PixelRepeat:
			if k+1 < w {
				seq[k+1] = seq[k]
			}
		case PixelOffset:
			off := rng.Between(1, max(1, min(8, w-1)))
			seq[k] = seq[(k+off)%w]
		case PixelRing:
			for n := range ring {
				ring[n] = 0
			}
			s.addRing(ring, k, max(s.Ringing, 0.1)*seq[k])
			for n := k + 1; n < w; n++ {
				seq[n] += ring[n]
			}
		}
	}
}
