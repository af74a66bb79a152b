package ccd

import (
	"math"

	"github.com/abworrall/ccd-glitch/pkg/ecolor"
	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// sensorStage turns the input image into charge: one plane of electrons
// per color, before any filtering.
type sensorStage struct {
	SensorParams
	refWell  float64
	fullWell float64
	cfa      CFAPattern
	arch     Architecture
}

func newSensorStage(sc SensorConfig, p SensorParams) *sensorStage {
	s := &sensorStage{
		SensorParams: p,
		refWell:      sc.FullWell(p.UseABG),
		cfa:          sc.CFA,
		arch:         sc.Architecture,
	}
	s.fullWell = s.refWell
	if p.FullWellOverride > 0 {
		s.fullWell = p.FullWellOverride
	}
	return s
}

func (s *sensorStage) Name() string  { return "sensor" }
func (s *sensorStage) Enabled() bool { return s.SensorParams.Enabled }

func (s *sensorStage) Transform(f *Frame, rng *Rand) { s.expose(f, s.Exposure, s.Linearize) }

// Bypass keeps the frame in electrons, but without any exposure scaling
// or change of transfer curve.
func (s *sensorStage) Bypass(f *Frame) { s.expose(f, 1, false) }

func (s *sensorStage) expose(f *Frame, exposure float64, linearize bool) {
	w, h := f.Dx(), f.Dy()
	sf := NewSensorFrame(w, h, 3)
	sf.CFA = s.cfa
	sf.Architecture = s.arch
	sf.FullWell = s.fullWell
	sf.RefWell = s.refWell
	f.Charge = sf

	scale := exposure * s.refWell
	// An overflowing scale is fine, the clamp below saturates it.
	if !emath.IsFinite(s.fullWell) || s.fullWell <= 0 || math.IsNaN(scale) {
		// No capacity to hold charge: every site reads as empty.
		sf.FullWell = 0
		f.Degeneracies.Add(s.Name(), w*h)
		return
	}

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				col := ecolor.NewLinear(f.Input.At(x+f.Bounds.Min.X, y+f.Bounds.Min.Y), linearize)
				for c := 0; c < 3; c++ {
					sf.Planes[c].Set(x, y, emath.Clamp(col.Channel(c)*scale, 0, s.fullWell))
				}
			}
		}
	})
}
