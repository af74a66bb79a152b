package ccd

import (
	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// noiseStage adds the sensor's own noise to the charge: dark current
// and shot noise (both Poisson), and Gaussian read noise.
type noiseStage struct {
	NoiseParams
	darkRate  float64 // electrons per site
	readNoise float64 // electrons rms
}

func newNoiseStage(sc SensorConfig, p NoiseParams) *noiseStage {
	s := &noiseStage{NoiseParams: p, darkRate: p.DarkRate, readNoise: p.ReadNoise}
	if s.darkRate < 0 {
		s.darkRate = sc.DarkElectronsPerSecond() * p.DarkExposure
	}
	if s.readNoise < 0 {
		s.readNoise = sc.ReadNoise
	}
	return s
}

func (s *noiseStage) Name() string  { return "noise" }
func (s *noiseStage) Enabled() bool { return s.NoiseParams.Enabled }

func (s *noiseStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	fw := sf.FullWell
	h := sf.Dy()

	for p, pl := range sf.Planes {
		p, pl := p, pl
		parallelRows(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				r := rng.Derive(saltNoise, p*h+y)
				row := pl.Row(y)
				for x, e := range row {
					if s.Shot {
						e = r.Poisson(e)
					}
					e += r.Poisson(s.darkRate)
					e += r.Normal(0, s.readNoise)
					row[x] = emath.Clamp(e, 0, fw)
				}
			}
		})
	}
}
