package ccd

import (
	"math"
	"sort"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

var cdsFactor = [...]float64{CDSOn: 1, CDSPartial: 0.7, CDSOff: 0}

// adcStage digitizes the charge into codes. Enabled, it models the
// real converter: correlated double sampling against the reset level,
// aperture jitter, uneven code widths and flipped bits.
type adcStage struct {
	ADCParams
	fullScale float64 // 0 until the frame's reference well is known
}

func newADCStage(p ADCParams) *adcStage {
	return &adcStage{ADCParams: p, fullScale: p.FullScaleElectrons}
}

func (s *adcStage) Name() string  { return "adc" }
func (s *adcStage) Enabled() bool { return s.ADCParams.Enabled }

func (s *adcStage) scale(sf *SensorFrame) float64 {
	if s.fullScale > 0 {
		return s.fullScale
	}
	return sf.RefWell
}

// Bypass is an ideal converter: perfect CDS, no noise, even codes.
func (s *adcStage) Bypass(f *Frame) {
	sf := f.Charge
	rf := s.newRaw(sf)
	maxCode := float64(rf.MaxCode())
	fs := s.scale(sf)
	bad := 0
	for p, pl := range sf.Planes {
		for y := 0; y < rf.Height; y++ {
			out := rf.Row(p, y)
			for x, v := range pl.Row(y) {
				if sf.Reset != nil {
					v -= sf.Reset.Get(x, y)
				}
				n := v / fs
				if !emath.IsFinite(n) {
					bad++
				}
				out[x] = quantize(math.Round(n*maxCode), maxCode)
			}
		}
	}
	f.Degeneracies.Add(s.Name(), bad)
	f.Raw = rf
}

func (s *adcStage) newRaw(sf *SensorFrame) *RawDigitalFrame {
	rf := NewRawDigitalFrame(sf.Dx(), sf.Dy(), len(sf.Planes), s.BitDepth)
	rf.Mosaiced = sf.Mosaiced
	rf.CFA = sf.CFA
	return rf
}

// quantize clamps a code into [0,maxCode]. NaN reads as 0, an
// overflow of either sign saturates.
func quantize(c, maxCode float64) uint16 {
	switch {
	case math.IsNaN(c):
		return 0
	case c <= 0:
		return 0
	case c >= maxCode:
		return uint16(maxCode)
	}
	return uint16(c)
}

// dnlEdges builds the upper edge of every code's step, with step widths
// varying by up to ±DNL. The edges span the same range as an ideal
// converter's, so only the spacing changes.
func (s *adcStage) dnlEdges(nCodes int, rng *Rand) []float64 {
	edges := make([]float64, nCodes)
	tot := 0.0
	for i := range edges {
		tot += 1 + s.DNL*(2*rng.Float64()-1)
		edges[i] = tot
	}
	for i := range edges {
		edges[i] *= float64(nCodes) / tot
	}
	return edges
}

func (s *adcStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	rf := s.newRaw(sf)
	maxCode := float64(rf.MaxCode())
	fs := s.scale(sf) * s.Gain
	cds := cdsFactor[s.CDS]
	w, h := sf.Dx(), sf.Dy()

	var edges []float64
	if s.DNL > 0 {
		edges = s.dnlEdges(int(maxCode)+1, rng.Derive(saltADCTable, 0))
	}

	if !emath.IsFinite(fs) || fs <= 0 {
		// Nothing to scale against: every site reads full code.
		for p := range rf.Planes {
			for i := range rf.Planes[p] {
				rf.Planes[p][i] = rf.MaxCode()
			}
		}
		f.Degeneracies.Add(s.Name(), w*h*len(rf.Planes))
		f.Raw = rf
		return
	}

	for p, pl := range sf.Planes {
		p, pl := p, pl
		parallelRows(h, func(y0, y1 int) {
			bad := 0
			for y := y0; y < y1; y++ {
				r := rng.Derive(saltADC, p*h+y)
				in := pl.Row(y)
				out := rf.Row(p, y)
				for x, v := range in {
					if sf.Reset != nil {
						v -= cds * sf.Reset.Get(x, y)
					}
					if s.Jitter > 0 {
						slope := (in[min(x+1, w-1)] - in[max(x-1, 0)]) / 2
						if nv := v + r.NormFloat64()*s.Jitter*math.Abs(slope); emath.IsFinite(nv) {
							v = nv
						}
					}
					v += r.Normal(0, s.JitterFloor)

					t := v/fs*maxCode + s.Bias + 0.5
					if !emath.IsFinite(t) {
						bad++
					}
					var c float64
					if edges != nil && !math.IsNaN(t) {
						c = float64(sort.SearchFloat64s(edges, math.Nextafter(t, math.Inf(1))))
					} else {
						c = math.Floor(t)
					}
					code := quantize(c, maxCode)

					if s.BitFlipProb > 0 {
						for b := 0; b < s.BitDepth; b++ {
							if r.Chance(s.BitFlipProb) {
								code ^= 1 << uint(b)
							}
						}
					}
					out[x] = code
				}
			}
			f.Degeneracies.Add(s.Name(), bad)
		})
	}
	f.Raw = rf
}
