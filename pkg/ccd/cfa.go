package ccd

// cfaStage mosaics the frame: each site keeps only the color its filter
// passes. Bypassed, all three planes carry on, as in a three-CCD camera.
type cfaStage struct {
	CFAParams
}

func (s *cfaStage) Name() string  { return "cfa" }
func (s *cfaStage) Enabled() bool { return s.CFAParams.Enabled }

func (s *cfaStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	if sf.Mosaiced {
		return
	}
	mosaic := sf.Planes[0].NewFromThis()
	for y := 0; y < mosaic.Dy(); y++ {
		for x := 0; x < mosaic.Dx(); x++ {
			mosaic.Set(x, y, sf.Planes[sf.CFA.ChannelAt(x, y)].Get(x, y))
		}
	}
	sf.Planes = sf.Planes[:1]
	sf.Planes[0] = mosaic
	sf.Mosaiced = true
}
