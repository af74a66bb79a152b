package ccd

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChannelAt(t *testing.T) {
	tests := []struct {
		p    CFAPattern
		want [2][2]Channel // [y][x]
	}{
		{RGGB, [2][2]Channel{{Red, Green}, {Green, Blue}}},
		{BGGR, [2][2]Channel{{Blue, Green}, {Green, Red}}},
		{GRBG, [2][2]Channel{{Green, Red}, {Blue, Green}}},
		{GBRG, [2][2]Channel{{Green, Blue}, {Red, Green}}},
	}
	for _, tc := range tests {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				if got := tc.p.ChannelAt(x, y); got != tc.want[y%2][x%2] {
					t.Errorf("%s.ChannelAt(%d,%d) = %s, want %s", tc.p, x, y, got, tc.want[y%2][x%2])
				}
			}
		}
	}
}

func TestNoiseAndBloomStayInWell(t *testing.T) {
	sc := mustPreset(t, "KAF-6303")
	p := DefaultParams()
	p.Sensor.Exposure = 3 // most of the image saturates
	p.Noise.DarkRate = 500

	img := gradientImage(image.Rect(0, 0, 24, 20))
	f := &Frame{Input: img, Bounds: img.Bounds(), Degeneracies: &Degeneracies{}}
	rng := NewRand(5)

	check := func(stage string) {
		fw := f.Charge.FullWell
		for i, pl := range f.Charge.Planes {
			for _, v := range pl.Values() {
				if v < 0 || v > fw || math.IsNaN(v) {
					t.Fatalf("after %s, plane %d holds %v, outside [0,%v]", stage, i, v, fw)
				}
			}
		}
	}

	newSensorStage(sc, p.Sensor).Transform(f, rng)
	(&cfaStage{p.CFA}).Transform(f, rng)
	newNoiseStage(sc, p.Noise).Transform(f, rng.Derive(0, 2))
	check("noise")
	newBloomStage(sc, p.Blooming).Transform(f, rng.Derive(0, 3))
	check("blooming")
}

func TestBloomingConservesChargeWithoutDrain(t *testing.T) {
	rows := [][]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 95, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	}
	for _, axis := range []Axis{AxisVertical, AxisHorizontal, AxisBoth} {
		f := chargeFrame(100, rows)
		s := newBloomStage(SensorConfig{}, BloomingParams{Enabled: true, Threshold: 0.5, Drain: 0, Axis: axis, Passes: 3})
		s.Transform(f, NewRand(1))

		if got := f.Charge.TotalCharge(); math.Abs(got-95) > 1e-9 {
			t.Errorf("%s: total charge %v, want 95", axis, got)
		}
		if got := f.Charge.Planes[0].Get(2, 2); got != 50 {
			t.Errorf("%s: bright site kept %v, want 50", axis, got)
		}
	}
}

func TestBloomingDrainLosesCharge(t *testing.T) {
	f := chargeFrame(100, [][]float64{
		{0, 0, 0},
		{0, 95, 0},
		{0, 0, 0},
	})
	s := newBloomStage(SensorConfig{}, BloomingParams{Enabled: true, Threshold: 0.5, Drain: 1, Axis: AxisBoth, Passes: 3})
	s.Transform(f, NewRand(1))
	if got := f.Charge.TotalCharge(); got >= 95 {
		t.Errorf("total charge %v, want less than 95", got)
	}
}

func TestBloomingAxisAuto(t *testing.T) {
	if s := newBloomStage(SensorConfig{Architecture: Interline}, BloomingParams{}); s.axis != AxisVertical {
		t.Errorf("interline auto axis %s, want vertical", s.axis)
	}
	if s := newBloomStage(SensorConfig{Architecture: FullFrame}, BloomingParams{}); s.axis != AxisBoth {
		t.Errorf("full frame auto axis %s, want both", s.axis)
	}
}

func TestBloomingMirrorSymmetry(t *testing.T) {
	rows := [][]float64{
		{0, 180, 10, 0, 0, 0},
		{0, 0, 0, 95, 40, 0},
		{120, 0, 0, 0, 0, 160},
		{0, 0, 60, 0, 0, 0},
	}
	mirrored := make([][]float64, len(rows))
	for y, row := range rows {
		for x := len(row) - 1; x >= 0; x-- {
			mirrored[y] = append(mirrored[y], row[x])
		}
	}

	for _, axis := range []Axis{AxisHorizontal, AxisVertical, AxisBoth} {
		p := BloomingParams{Enabled: true, Threshold: 0.4, Drain: 0.2, Axis: axis, Passes: 4}
		a, b := chargeFrame(100, rows), chargeFrame(100, mirrored)
		newBloomStage(SensorConfig{}, p).Transform(a, NewRand(1))
		newBloomStage(SensorConfig{}, p).Transform(b, NewRand(1))

		w := len(rows[0])
		for y := range rows {
			for x := 0; x < w; x++ {
				got, want := b.Charge.Planes[0].Get(w-1-x, y), a.Charge.Planes[0].Get(x, y)
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%s: mirrored site (%d,%d) = %v, want %v", axis, w-1-x, y, got, want)
				}
			}
		}
	}
}

func TestVClockTrap(t *testing.T) {
	f := chargeFrame(1000, [][]float64{{0}, {0}, {1000}, {0}, {0}, {0}})
	s := newVClockStage(SensorConfig{}, VClockParams{Enabled: true, CTE: 0.9})
	s.Transform(f, NewRand(1))

	want := []float64{0, 0, 900, 10, 9, 8.1}
	for y, w := range want {
		if got := f.Charge.Planes[0].Get(0, y); math.Abs(got-w) > 1e-9 {
			t.Errorf("row %d: %v, want %v", y, got, w)
		}
	}
}

func TestHClockDirection(t *testing.T) {
	row := []float64{0, 1000, 0, 0}
	for _, tc := range []struct {
		dir  ReadoutDirection
		want []float64
	}{
		{LeftToRight, []float64{0, 900, 10, 9}},
		{RightToLeft, []float64{10, 900, 0, 0}},
	} {
		f := chargeFrame(1000, [][]float64{row})
		s := newHClockStage(SensorConfig{}, HClockParams{Enabled: true, CTE: 0.9, Direction: tc.dir})
		s.Transform(f, NewRand(1))
		for x, w := range tc.want {
			if got := f.Charge.Planes[0].Get(x, 0); math.Abs(got-w) > 1e-9 {
				t.Errorf("%s site %d: %v, want %v", tc.dir, x, got, w)
			}
		}
	}
}

func TestHClockRinging(t *testing.T) {
	row := []float64{0, 0, 0, 800, 800, 800, 800, 800, 800, 800}
	f := chargeFrame(1000, [][]float64{row})
	s := newHClockStage(SensorConfig{}, HClockParams{
		Enabled: true, CTE: 1, Ringing: 0.2, RingThreshold: 0.25, RingPeriod: 2, RingDecay: 1.5, RingLength: 4,
	})
	s.Transform(f, NewRand(1))

	pl := f.Charge.Planes[0]
	for x := 0; x <= 3; x++ {
		if pl.Get(x, 0) != row[x] {
			t.Errorf("site %d before the ring changed: %v", x, pl.Get(x, 0))
		}
	}
	// cos(pi*2/2) = -1: the second site after the step dips
	want := 800 - 0.2*800*math.Exp(-2/1.5)
	if got := pl.Get(5, 0); math.Abs(got-want) > 1e-6 {
		t.Errorf("site 5: %v, want %v", got, want)
	}
	if got := pl.Get(9, 0); got != 800 {
		t.Errorf("site 9, past the ring: %v", got)
	}
}

func TestSCurve(t *testing.T) {
	for _, a := range []float64{0, 0.3, 1} {
		if got := sCurve(0, a); got != 0 {
			t.Errorf("sCurve(0,%v) = %v", a, got)
		}
		if got := sCurve(1, a); math.Abs(got-1) > 1e-12 {
			t.Errorf("sCurve(1,%v) = %v", a, got)
		}
		prev := math.Inf(-1)
		for x := -0.5; x <= 1.5; x += 0.01 {
			y := sCurve(x, a)
			if y < prev {
				t.Fatalf("sCurve(., %v) not monotonic at %v", a, x)
			}
			prev = y
		}
	}
}

func TestAmplifierResetNoiseCancelledByCDS(t *testing.T) {
	f := chargeFrame(40000, [][]float64{{10000, 20000, 30000, 40000}})
	(&ampStage{AmplifierParams{Enabled: true, Gain: 1, ResetNoise: 50}}).Transform(f, NewRand(3))
	if f.Charge.Reset == nil {
		t.Fatalf("no reset plane sampled")
	}
	newADCStage(ADCParams{Enabled: true, BitDepth: 16, Gain: 1, CDS: CDSOn}).Transform(f, NewRand(4))

	for x, want := range []float64{10000, 20000, 30000, 40000} {
		code := float64(f.Raw.At(0, x, 0))
		if math.Abs(code-want/40000*65535) > 1 {
			t.Errorf("site %d: code %v, want %v", x, code, want/40000*65535)
		}
	}
}

func TestADCPathologicalInputs(t *testing.T) {
	vals := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1e9, 1e300, 0, 500, 1000}
	tests := []struct {
		name string
		p    ADCParams
	}{
		{"1 bit", ADCParams{Enabled: true, BitDepth: 1, Gain: 1}},
		{"huge gain", ADCParams{Enabled: true, BitDepth: 12, Gain: 1e-12}},
		{"tiny gain", ADCParams{Enabled: true, BitDepth: 8, Gain: 1e12, Bias: -40}},
		{"everything", ADCParams{Enabled: true, BitDepth: 10, Gain: 1, Bias: 3, DNL: 0.8, BitFlipProb: 0.3, Jitter: 2, JitterFloor: 5, CDS: CDSPartial}},
	}
	for _, tc := range tests {
		f := chargeFrame(1000, [][]float64{vals})
		newADCStage(tc.p).Transform(f, NewRand(9))
		maxCode := uint16(1<<uint(tc.p.BitDepth) - 1)
		for x := range vals {
			if c := f.Raw.At(0, x, 0); c > maxCode {
				t.Errorf("%s: input %v gave code %d > %d", tc.name, vals[x], c, maxCode)
			}
		}
	}

	f := chargeFrame(1000, [][]float64{{math.NaN(), math.Inf(1), math.Inf(-1)}})
	newADCStage(ADCParams{Enabled: true, BitDepth: 8, Gain: 1}).Transform(f, NewRand(1))
	if got := []uint16{f.Raw.At(0, 0, 0), f.Raw.At(0, 1, 0), f.Raw.At(0, 2, 0)}; got[0] != 0 || got[1] != 255 || got[2] != 0 {
		t.Errorf("NaN,+Inf,-Inf gave %v, want [0 255 0]", got)
	}
}

func TestADCZeroFullScaleSaturates(t *testing.T) {
	f := chargeFrame(0, [][]float64{{0, 0}})
	newADCStage(ADCParams{Enabled: true, BitDepth: 8, Gain: 1}).Transform(f, NewRand(1))
	if f.Raw.At(0, 0, 0) != 255 || f.Raw.At(0, 1, 0) != 255 {
		t.Errorf("codes %v, want saturated", f.Raw.Planes[0])
	}
	if f.Degeneracies.Count("adc") != 2 {
		t.Errorf("adc degeneracies %d, want 2", f.Degeneracies.Count("adc"))
	}
}

func TestOverexposureSaturates(t *testing.T) {
	sc := mustPreset(t, "KAF-6303")
	img := uniformImage(image.Rect(0, 0, 4, 4), color.Gray{200})
	f := &Frame{Input: img, Bounds: img.Bounds(), Degeneracies: &Degeneracies{}}
	newSensorStage(sc, SensorParams{Enabled: true, Exposure: 1e305}).Transform(f, NewRand(1))

	fw := f.Charge.FullWell
	if fw <= 0 {
		t.Fatalf("full well %v, want the preset's", fw)
	}
	for i, pl := range f.Charge.Planes {
		for _, v := range pl.Values() {
			if v != fw {
				t.Fatalf("plane %d holds %v, want a full well of %v", i, v, fw)
			}
		}
	}
	if n := f.Degeneracies.Count("sensor"); n != 0 {
		t.Errorf("sensor degeneracies %d, want 0", n)
	}
}

func TestAmplifierOverflowSaturates(t *testing.T) {
	f := chargeFrame(40000, [][]float64{{40000.0 / 255, 40000}})
	(&ampStage{AmplifierParams{Enabled: true, Gain: 1e305}}).Transform(f, NewRand(1))
	if got := f.Charge.Planes[0].Get(1, 0); !(got > 0) || math.IsInf(got, 0) {
		t.Fatalf("white site amplified to %v, want a large finite value", got)
	}
	if n := f.Degeneracies.Count("amplifier"); n != 1 {
		t.Errorf("amplifier degeneracies %d, want 1", n)
	}

	newADCStage(ADCParams{Enabled: true, BitDepth: 16, Gain: 1}).Transform(f, NewRand(2))
	dim, white := f.Raw.At(0, 0, 0), f.Raw.At(0, 1, 0)
	if white != 65535 || dim > white {
		t.Errorf("codes dim %d, white %d; want white saturated and dim no brighter", dim, white)
	}

	// Jitter across a saturated edge must not push the white site to black
	f = chargeFrame(40000, [][]float64{{-math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}})
	newADCStage(ADCParams{Enabled: true, BitDepth: 16, Gain: 1, Jitter: 1}).Transform(f, NewRand(3))
	if got := f.Raw.At(0, 1, 0); got != 65535 {
		t.Errorf("saturated site with jitter read %d, want 65535", got)
	}
}

func TestDNLEdges(t *testing.T) {
	s := newADCStage(ADCParams{DNL: 0.9})
	edges := s.dnlEdges(256, NewRand(2))
	prev := 0.0
	for i, e := range edges {
		if e <= prev {
			t.Fatalf("edge %d (%v) not above %v", i, e, prev)
		}
		prev = e
	}
	if math.Abs(edges[255]-256) > 1e-9 {
		t.Errorf("last edge %v, want 256", edges[255])
	}
}

// constantMosaic samples a flat color through the CFA at 16 bits.
func constantMosaic(w, h int, cfa CFAPattern, c [3]float64) *RawDigitalFrame {
	rf := NewRawDigitalFrame(w, h, 1, 16)
	rf.Mosaiced, rf.CFA = true, cfa
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rf.Set(0, x, y, uint16(math.Round(c[cfa.ChannelAt(x, y)]*65535)))
		}
	}
	return rf
}

func TestDemosaicConstantColor(t *testing.T) {
	c := [3]float64{0.2, 0.5, 0.8}
	var want [3]float64
	for i := range c {
		want[i] = math.Round(c[i]*65535) / 65535
	}

	for _, cfa := range []CFAPattern{RGGB, BGGR, GRBG, GBRG} {
		for _, alg := range []DemosaicAlgorithm{Bilinear, MalvarHeCutler} {
			for _, size := range []image.Point{{10, 8}, {7, 5}, {2, 2}} {
				f := &Frame{Bounds: image.Rect(0, 0, size.X, size.Y), Raw: constantMosaic(size.X, size.Y, cfa, c)}
				(&demosaicStage{DemosaicParams{Enabled: true, Algorithm: alg}}).Transform(f, NewRand(1))

				for i, px := range f.RGB.Pix {
					got := [3]float64{px.R, px.G, px.B}
					for ch := range got {
						if math.Abs(got[ch]-want[ch]) > 1e-9 {
							t.Fatalf("%s %s %v: site %d channel %d = %v, want %v", cfa, alg, size, i, ch, got[ch], want[ch])
						}
					}
				}
			}
		}
	}
}

func TestDemosaicNoneReplicates(t *testing.T) {
	f := &Frame{Bounds: image.Rect(0, 0, 4, 4), Raw: constantMosaic(4, 4, RGGB, [3]float64{1, 0.5, 0})}
	(&demosaicStage{}).Bypass(f)
	px := f.RGB.Get(0, 0) // a red site
	if px.R != 1 || px.G != 1 || px.B != 1 {
		t.Errorf("red site %v, want its sample in every channel", px)
	}
}

func TestColorSwapAndGain(t *testing.T) {
	p := DefaultParams().Color
	p.Gamma = GammaNone
	p.Swap = SwapBRG
	p.Gain = [3]float64{1, 0.5, 1}

	s := newColorStage(p)
	got := s.pixel(rgbOf(0.2, 0.4, 0.6))
	// Gain first (G halves to 0.2), then R,G,B take B,R,G
	want := rgbOf(0.6, 0.2, 0.2)
	if math.Abs(got.R-want.R)+math.Abs(got.G-want.G)+math.Abs(got.B-want.B) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestChromaticAberrationOffset(t *testing.T) {
	p := DefaultParams().Color
	p.Gamma = GammaNone
	p.CAOffsetR = image.Point{1, 0}

	r := image.Rect(0, 0, 6, 1)
	f := &Frame{Bounds: r, RGB: NewRGBFrame(r)}
	for x := 0; x < 6; x++ {
		v := 0.0
		if x == 2 {
			v = 1
		}
		f.RGB.Set(x, 0, rgbOf(v, v, v))
	}
	newColorStage(p).Transform(f, NewRand(1))

	if r := f.RGB.Get(3, 0).R; r != 1 {
		t.Errorf("red should have moved right one site, got R(3)=%v", r)
	}
	if g := f.RGB.Get(2, 0).G; g != 1 {
		t.Errorf("green should stay put, got G(2)=%v", g)
	}
}

func TestGlitchBlockShiftKeepsCFAParity(t *testing.T) {
	// Each site's code says which color it is
	rf := constantMosaic(16, 16, GRBG, [3]float64{0.1, 0.2, 0.3})
	want := rf.Copy()

	f := &Frame{Bounds: image.Rect(0, 0, 16, 16), Raw: rf}
	g := &glitchStage{GlitchParams{Enabled: true, BlockShift: BlockShiftParams{
		Enabled: true, BlockSize: 4, Probability: 1, MaxOffset: 5,
	}}}
	g.Transform(f, NewRand(11))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if rf.At(0, x, y) != want.At(0, x, y) {
				t.Fatalf("site (%d,%d) got a code from another color", x, y)
			}
		}
	}
}

func TestPixelShiftBoundary(t *testing.T) {
	tests := []struct {
		b    Boundary
		want []uint16
	}{
		{BoundaryWrap, []uint16{4, 5, 1, 2, 3}},
		{BoundaryClamp, []uint16{1, 1, 1, 2, 3}},
	}
	for _, tc := range tests {
		rf := NewRawDigitalFrame(5, 1, 1, 8)
		copy(rf.Planes[0], []uint16{1, 2, 3, 4, 5})
		f := &Frame{Bounds: image.Rect(0, 0, 5, 1), Raw: rf}
		g := &glitchStage{GlitchParams{Enabled: true, PixelShift: PixelShiftParams{Enabled: true, DX: 2, Boundary: tc.b}}}
		g.Transform(f, NewRand(1))
		if diff := cmp.Diff(tc.want, rf.Planes[0]); diff != "" {
			t.Errorf("%s: shifted row mismatch (-want +got):\n%s", tc.b, diff)
		}
	}
}

func TestGlitchPixelShiftKeepsCFAParity(t *testing.T) {
	rf := constantMosaic(16, 16, RGGB, [3]float64{0.1, 0.2, 0.3})
	want := rf.Copy()

	f := &Frame{Bounds: image.Rect(0, 0, 16, 16), Raw: rf}
	g := &glitchStage{GlitchParams{Enabled: true, PixelShift: PixelShiftParams{
		Enabled: true, DX: 3, DY: 1, RowProbability: 1, MaxRowShift: 3,
	}}}
	g.Transform(f, NewRand(5))

	if diff := cmp.Diff(want.Planes, rf.Planes); diff != "" {
		t.Errorf("odd shifts moved codes onto another color (-want +got):\n%s", diff)
	}
}

func TestGlitchScanLineAndBitPlane(t *testing.T) {
	rf := NewRawDigitalFrame(4, 3, 1, 8)
	for i := range rf.Planes[0] {
		rf.Planes[0][i] = 1
	}
	f := &Frame{Bounds: image.Rect(0, 0, 4, 3), Raw: rf}

	g := &glitchStage{GlitchParams{Enabled: true, BitPlane: BitPlaneParams{Enabled: true, Rotate: 7}}}
	g.Transform(f, NewRand(1))
	if got := rf.At(0, 0, 0); got != 128 {
		t.Errorf("rotate 7 of 1 in 8 bits = %d, want 128", got)
	}

	g = &glitchStage{GlitchParams{Enabled: true, BitPlane: BitPlaneParams{Enabled: true, XORMask: 0xFFFF, Region: image.Rect(0, 0, 1, 1)}}}
	g.Transform(f, NewRand(1))
	if got := rf.At(0, 0, 0); got != 127 {
		t.Errorf("xor in region = %d, want 127", got)
	}
	if got := rf.At(0, 1, 0); got != 128 {
		t.Errorf("site outside the region changed to %d", got)
	}

	g = &glitchStage{GlitchParams{Enabled: true, ScanLine: ScanLineParams{Enabled: true, Probability: 1, MaxBand: 1, Modes: []ScanLineMode{ScanMax}}}}
	g.Transform(f, NewRand(1))
	for i, v := range rf.Planes[0] {
		if v != 255 {
			t.Fatalf("site %d = %d after a max scan line", i, v)
		}
	}
}

func TestRandDeriveIgnoresParentState(t *testing.T) {
	a, b := NewRand(77), NewRand(77)
	for i := 0; i < 10; i++ {
		a.Float64()
	}
	if a.Derive(3, 4).Uint64() != b.Derive(3, 4).Uint64() {
		t.Errorf("derived generators differ")
	}
	if b.Derive(3, 4).Uint64() == b.Derive(3, 5).Uint64() {
		t.Errorf("different rows share a generator")
	}
}
