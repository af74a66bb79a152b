package ccd

import (
	"math"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// ampStage is the output amplifier: gain with an optional S-shaped
// transfer curve, the kTC reset noise sampled before each site, and
// the glow the amplifier gives off into the nearby corner of the chip.
type ampStage struct {
	AmplifierParams
}

func (s *ampStage) Name() string  { return "amplifier" }
func (s *ampStage) Enabled() bool { return s.AmplifierParams.Enabled }

// sCurve maps a signal in full well units through the amplifier's
// transfer curve; a blends between linear (0) and the normalized
// sigmoid (1). Outside [0,1] the curve carries on linearly.
func sCurve(x, a float64) float64 {
	if a <= 0 || x <= 0 || x >= 1 {
		return x
	}
	k := 2 + 10*a
	lo, hi := emath.Sigmoid(-k/2), emath.Sigmoid(k/2)
	sn := (emath.Sigmoid(k*(x-0.5)) - lo) / (hi - lo)
	return (1-a)*x + a*sn
}

// glow is the amplifier glow at (x,y), in electrons.
func (s *ampStage) glow(x, y, w, h int, fw float64) float64 {
	if s.Glow <= 0 {
		return 0
	}
	cx, cy := 0.0, 0.0
	if s.GlowCorner == BottomRight || s.GlowCorner == TopRight {
		cx = float64(w - 1)
	}
	if s.GlowCorner == BottomRight || s.GlowCorner == BottomLeft {
		cy = float64(h - 1)
	}
	peak := s.Glow * fw * 0.01
	dx := math.Abs(float64(x)-cx) / math.Max(1, float64(w-1))
	if s.GlowMode == GlowLinear {
		return peak * (1 - dx)
	}
	dy := math.Abs(float64(y)-cy) / math.Max(1, float64(h-1))
	d2 := (dx*dx + dy*dy) / 2
	return peak / (1 + 50*d2)
}

func (s *ampStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	w, h := sf.Dx(), sf.Dy()
	ref := sf.RefWell
	if ref <= 0 {
		ref = sf.FullWell
	}
	if s.ResetNoise > 0 {
		sf.Reset = sf.Planes[0].NewFromThis()
	}

	for p, pl := range sf.Planes {
		p, pl := p, pl
		parallelRows(h, func(y0, y1 int) {
			bad := 0
			for y := y0; y < y1; y++ {
				r := rng.Derive(saltAmplifier, p*h+y)
				row := pl.Row(y)
				for x, v := range row {
					out := v * s.Gain
					if s.Nonlinearity > 0 && ref > 0 {
						out = sCurve(out/ref, s.Nonlinearity) * ref
					}
					if sf.Reset != nil {
						// One reset sample per site, shared by all planes
						if p == 0 {
							sf.Reset.Set(x, y, r.Normal(0, s.ResetNoise))
						}
						out += sf.Reset.Get(x, y)
					}
					out += s.glow(x, y, w, h, sf.FullWell)
					switch {
					case math.IsNaN(out):
						out = 0
						bad++
					case math.IsInf(out, 0):
						// Overflow saturates, it must not read as black
						out = math.Copysign(math.MaxFloat64, out)
						bad++
					}
					row[x] = out
				}
			}
			f.Degeneracies.Add(s.Name(), bad)
		})
	}
}
