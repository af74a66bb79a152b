package ccd

import (
	"fmt"
	"image"
	"math"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// Params holds one parameter record per stage. Field names double as
// the (lowercased) YAML keys, e.g.
//
//	vclock:
//	  enabled: true
//	  cte: 0.9
//	adc:
//	  bitdepth: 8
//	  cds: partial
type Params struct {
	Sensor    SensorParams
	CFA       CFAParams
	Noise     NoiseParams
	Blooming  BloomingParams
	VClock    VClockParams
	HClock    HClockParams
	Amplifier AmplifierParams
	ADC       ADCParams
	Glitch    GlitchParams
	Demosaic  DemosaicParams
	Color     ColorParams
}

type SensorParams struct {
	Enabled          bool
	Exposure         float64 // photon-to-electron conversion gain; 1.0 maps full scale input onto the preset full well
	Linearize        bool    // remove the sRGB transfer curve from the input first
	UseABG           bool    // sensor has an anti-blooming gate (smaller full well)
	FullWellOverride float64 // electrons; 0 means use the preset
}

type CFAParams struct {
	Enabled bool
}

type NoiseParams struct {
	Enabled      bool
	Shot         bool    // photon shot noise
	DarkRate     float64 // dark electrons per site; -1 derives it from the preset's dark current and DarkExposure
	DarkExposure float64 // seconds, used when DarkRate is derived
	ReadNoise    float64 // electrons rms; -1 uses the preset's value
}

type BloomingParams struct {
	Enabled   bool
	Threshold float64 // fraction of full well above which charge spills, (0,1]
	Drain     float64 // fraction of the excess the anti-blooming gate removes, [0,1]
	Axis      Axis
	Passes    int // scatter passes, so spill into saturated neighbours can travel further
}

type VClockParams struct {
	Enabled            bool
	CTE                float64 // 0 uses the preset's vertical CTE
	ParallelSmear      float64 // fraction of the column mean smeared over the column, [0,1]
	WaveformDistortion float64 // depth of the sinusoidal row modulation, [0,1]
	WaveformAmplitude  float64 // stddev of random row distortion, as a fraction of full well
	RowGlitchProb      float64 // per row
	RowGlitches        []RowGlitch
}

type HClockParams struct {
	Enabled         bool
	CTE             float64 // 0 uses the preset's horizontal CTE
	Direction       ReadoutDirection
	Ringing         float64 // ring amplitude as a fraction of the step that caused it, [0,1]
	RingThreshold   float64 // steps bigger than this fraction of full well ring
	RingPeriod      float64 // sites per half cycle
	RingDecay       float64 // sites per e-fold
	RingLength      int     // sites the ring lasts
	PixelGlitchProb float64 // per site
	PixelGlitches   []PixelGlitch
}

type AmplifierParams struct {
	Enabled      bool
	Gain         float64
	Nonlinearity float64 // blend towards the S-curve, [0,1]
	ResetNoise   float64 // kTC noise, electrons rms
	Glow         float64 // peak glow, percent of full well
	GlowMode     GlowMode
	GlowCorner   Corner
}

type ADCParams struct {
	Enabled            bool
	BitDepth           int
	FullScaleElectrons float64 // 0 uses the preset full well
	Gain               float64 // electrons per (full scale / max code) step multiplier
	Bias               float64 // codes
	CDS                CDSMode
	DNL                float64 // per-code step width error, [0,1]
	BitFlipProb        float64 // per bit
	Jitter             float64 // scales the local slope into sampling noise
	JitterFloor        float64 // electrons rms, independent of slope
}

type GlitchParams struct {
	Enabled    bool
	PixelShift PixelShiftParams
	BlockShift BlockShiftParams
	ScanLine   ScanLineParams
	BitPlane   BitPlaneParams
}

type PixelShiftParams struct {
	Enabled        bool
	DX, DY         int
	RowProbability float64
	MaxRowShift    int
	Boundary       Boundary
}

type BlockShiftParams struct {
	Enabled     bool
	BlockSize   int
	Probability float64
	MaxOffset   int
	Boundary    Boundary
}

type ScanLineParams struct {
	Enabled     bool
	Probability float64 // per row
	MaxBand     int     // a corrupted band is 1..MaxBand rows tall
	Modes       []ScanLineMode
	XORMask     uint16
}

type BitPlaneParams struct {
	Enabled     bool
	XORMask     uint16
	Rotate      int
	Swaps       [][2]int
	RandomSwaps int
	Region      image.Rectangle // empty means the whole frame
}

type DemosaicParams struct {
	Enabled   bool
	Algorithm DemosaicAlgorithm
}

type ColorParams struct {
	Enabled      bool
	WhiteBalance emath.Vec3
	Gamma        GammaMode
	GammaValue   float64 // exponent for GammaPower
	Brightness   float64
	Contrast     float64
	Gain         emath.Vec3
	Offset       emath.Vec3
	Swap         ChannelSwap
	CAScale      float64     // R is sampled at 1+CAScale, B at 1-CAScale, about the centre
	CAOffsetR    image.Point // sites
	CAOffsetB    image.Point
}

// DefaultParams is the pipeline a real camera would have: every
// physical stage on, the digital glitches off.
func DefaultParams() Params {
	return Params{
		Sensor:   SensorParams{Enabled: true, Exposure: 1, Linearize: true, UseABG: true},
		CFA:      CFAParams{Enabled: true},
		Noise:    NoiseParams{Enabled: true, Shot: true, DarkRate: -1, DarkExposure: 1, ReadNoise: -1},
		Blooming: BloomingParams{Enabled: true, Threshold: 0.9, Drain: 0.5, Axis: AxisAuto, Passes: 3},
		VClock:   VClockParams{Enabled: true},
		HClock: HClockParams{
			Enabled: true, Direction: LeftToRight,
			RingThreshold: 0.25, RingPeriod: 2, RingDecay: 1.5, RingLength: 8,
		},
		Amplifier: AmplifierParams{Enabled: true, Gain: 1, GlowMode: GlowRadial, GlowCorner: BottomRight},
		ADC:       ADCParams{Enabled: true, BitDepth: 16, Gain: 1, CDS: CDSOn},
		Glitch: GlitchParams{
			PixelShift: PixelShiftParams{MaxRowShift: 16},
			BlockShift: BlockShiftParams{BlockSize: 32, MaxOffset: 16},
			ScanLine:   ScanLineParams{MaxBand: 1},
		},
		Demosaic: DemosaicParams{Enabled: true, Algorithm: MalvarHeCutler},
		Color: ColorParams{
			Enabled:      true,
			WhiteBalance: emath.Vec3{1, 1, 1},
			Gamma:        GammaSRGB,
			GammaValue:   2.2,
			Contrast:     1,
			Gain:         emath.Vec3{1, 1, 1},
		},
	}
}

// Bypassed returns p with every stage switched off; a render through
// it gives back the input.
func (p Params) Bypassed() Params {
	p.Sensor.Enabled = false
	p.CFA.Enabled = false
	p.Noise.Enabled = false
	p.Blooming.Enabled = false
	p.VClock.Enabled = false
	p.HClock.Enabled = false
	p.Amplifier.Enabled = false
	p.ADC.Enabled = false
	p.Glitch.Enabled = false
	p.Demosaic.Enabled = false
	p.Color.Enabled = false
	return p
}

// Quiet returns p with every source of randomness and every glitch
// switched off, leaving the deterministic physics in place.
func (p Params) Quiet() Params {
	p.Noise.Enabled = false
	p.VClock.RowGlitchProb = 0
	p.VClock.WaveformAmplitude = 0
	p.HClock.PixelGlitchProb = 0
	p.Amplifier.ResetNoise = 0
	p.ADC.DNL = 0
	p.ADC.BitFlipProb = 0
	p.ADC.Jitter = 0
	p.ADC.JitterFloor = 0
	p.Glitch.Enabled = false
	return p
}

type rangeCheck struct {
	field  string
	v      float64
	lo, hi float64
}

type enumCheck struct {
	field string
	v, n  int
}

func (rc rangeCheck) check() error {
	if !emath.IsFinite(rc.v) || rc.v < rc.lo || rc.v > rc.hi {
		return badParam(rc.field, rc.v, "must be in [%g,%g]", rc.lo, rc.hi)
	}
	return nil
}

// Validate range-checks every parameter. `frame` is the size of the
// image about to be rendered; stages with fixed geometry check against
// it and report a DimensionMismatch.
func (p Params) Validate(sc SensorConfig, frame image.Rectangle) error {
	if err := p.validateRanges(sc); err != nil {
		return err
	}
	return p.validateGeometry(frame)
}

func (p Params) validateRanges(sc SensorConfig) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	inf := math.Inf(1)
	checks := []rangeCheck{
		{"sensor.exposure", p.Sensor.Exposure, 0, inf},
		{"sensor.fullwelloverride", p.Sensor.FullWellOverride, 0, inf},
		{"noise.darkrate", p.Noise.DarkRate, -1, inf},
		{"noise.darkexposure", p.Noise.DarkExposure, 0, inf},
		{"noise.readnoise", p.Noise.ReadNoise, -1, inf},
		{"blooming.drain", p.Blooming.Drain, 0, 1},
		{"vclock.cte", p.VClock.CTE, 0, 1},
		{"vclock.parallelsmear", p.VClock.ParallelSmear, 0, 1},
		{"vclock.waveformdistortion", p.VClock.WaveformDistortion, 0, 1},
		{"vclock.waveformamplitude", p.VClock.WaveformAmplitude, 0, inf},
		{"vclock.rowglitchprob", p.VClock.RowGlitchProb, 0, 1},
		{"hclock.cte", p.HClock.CTE, 0, 1},
		{"hclock.ringing", p.HClock.Ringing, 0, 1},
		{"hclock.ringthreshold", p.HClock.RingThreshold, 0, inf},
		{"hclock.ringperiod", p.HClock.RingPeriod, 0, inf},
		{"hclock.ringdecay", p.HClock.RingDecay, 0, inf},
		{"hclock.pixelglitchprob", p.HClock.PixelGlitchProb, 0, 1},
		{"amplifier.gain", p.Amplifier.Gain, -inf, inf},
		{"amplifier.nonlinearity", p.Amplifier.Nonlinearity, 0, 1},
		{"amplifier.resetnoise", p.Amplifier.ResetNoise, 0, inf},
		{"amplifier.glow", p.Amplifier.Glow, 0, inf},
		{"adc.fullscaleelectrons", p.ADC.FullScaleElectrons, 0, inf},
		{"adc.bias", p.ADC.Bias, -inf, inf},
		{"adc.dnl", p.ADC.DNL, 0, 1},
		{"adc.bitflipprob", p.ADC.BitFlipProb, 0, 1},
		{"adc.jitter", p.ADC.Jitter, 0, inf},
		{"adc.jitterfloor", p.ADC.JitterFloor, 0, inf},
		{"glitch.pixelshift.rowprobability", p.Glitch.PixelShift.RowProbability, 0, 1},
		{"glitch.blockshift.probability", p.Glitch.BlockShift.Probability, 0, 1},
		{"glitch.scanline.probability", p.Glitch.ScanLine.Probability, 0, 1},
		{"color.gammavalue", p.Color.GammaValue, 0, inf},
		{"color.brightness", p.Color.Brightness, -1, 1},
		{"color.contrast", p.Color.Contrast, 0, inf},
		{"color.cascale", p.Color.CAScale, -0.5, 0.5},
	}
	for i := 0; i < 3; i++ {
		checks = append(checks,
			rangeCheck{fmt.Sprintf("color.whitebalance[%d]", i), p.Color.WhiteBalance[i], 0, inf},
			rangeCheck{fmt.Sprintf("color.gain[%d]", i), p.Color.Gain[i], 0, inf},
			rangeCheck{fmt.Sprintf("color.offset[%d]", i), p.Color.Offset[i], -1, 1},
		)
	}
	for _, rc := range checks {
		if err := rc.check(); err != nil {
			return err
		}
	}

	// Values where zero is not allowed, or which are only checked when the stage runs
	if t := p.Blooming.Threshold; p.Blooming.Enabled && (math.IsNaN(t) || t <= 0 || t > 1) {
		return badParam("blooming.threshold", t, "must be in (0,1]")
	}
	if p.Blooming.Enabled && (p.Blooming.Passes < 1 || p.Blooming.Passes > 64) {
		return badParam("blooming.passes", p.Blooming.Passes, "must be in [1,64]")
	}
	if p.HClock.RingLength < 0 || p.HClock.RingLength > 256 {
		return badParam("hclock.ringlength", p.HClock.RingLength, "must be in [0,256]")
	}
	if p.ADC.BitDepth < 1 || p.ADC.BitDepth > 16 {
		return badParam("adc.bitdepth", p.ADC.BitDepth, "must be in [1,16]")
	}
	if g := p.ADC.Gain; p.ADC.Enabled && (!emath.IsFinite(g) || g <= 0) {
		return badParam("adc.gain", g, "must be > 0")
	}
	if p.Color.Gamma == GammaPower && p.Color.GammaValue <= 0 {
		return badParam("color.gammavalue", p.Color.GammaValue, "must be > 0 for power gamma")
	}

	enums := []enumCheck{
		{"blooming.axis", int(p.Blooming.Axis), len(axisNames)},
		{"hclock.direction", int(p.HClock.Direction), len(readoutNames)},
		{"amplifier.glowmode", int(p.Amplifier.GlowMode), len(glowModeNames)},
		{"amplifier.glowcorner", int(p.Amplifier.GlowCorner), len(cornerNames)},
		{"adc.cds", int(p.ADC.CDS), len(cdsNames)},
		{"glitch.pixelshift.boundary", int(p.Glitch.PixelShift.Boundary), len(boundaryNames)},
		{"glitch.blockshift.boundary", int(p.Glitch.BlockShift.Boundary), len(boundaryNames)},
		{"demosaic.algorithm", int(p.Demosaic.Algorithm), len(demosaicNames)},
		{"color.gamma", int(p.Color.Gamma), len(gammaNames)},
		{"color.swap", int(p.Color.Swap), len(swapNames)},
	}
	for _, g := range p.VClock.RowGlitches {
		enums = append(enums, enumCheck{"vclock.rowglitches", int(g), len(rowGlitchNames)})
	}
	for _, g := range p.HClock.PixelGlitches {
		enums = append(enums, enumCheck{"hclock.pixelglitches", int(g), len(pixelGlitchNames)})
	}
	for _, m := range p.Glitch.ScanLine.Modes {
		enums = append(enums, enumCheck{"glitch.scanline.modes", int(m), len(scanLineNames)})
	}
	for _, e := range enums {
		if !validEnum(e.v, e.n) {
			return badParam(e.field, e.v, "unknown value")
		}
	}
	return nil
}

func (p Params) validateGeometry(frame image.Rectangle) error {
	size := frame.Size()
	if size.X <= 0 || size.Y <= 0 {
		return &DimensionMismatch{Stage: "render", Frame: size, Need: image.Point{1, 1}, Reason: "empty image"}
	}

	if !p.Glitch.Enabled {
		return nil
	}
	ps := p.Glitch.PixelShift
	if ps.Enabled && (ps.MaxRowShift < 0 || ps.MaxRowShift > size.X) {
		return badParam("glitch.pixelshift.maxrowshift", ps.MaxRowShift, "must be in [0,%d]", size.X)
	}
	bs := p.Glitch.BlockShift
	if bs.Enabled {
		if bs.BlockSize < 1 {
			return badParam("glitch.blockshift.blocksize", bs.BlockSize, "must be >= 1")
		}
		if bs.BlockSize > size.X || bs.BlockSize > size.Y {
			return &DimensionMismatch{Stage: "glitch.blockshift", Frame: size,
				Need: image.Point{bs.BlockSize, bs.BlockSize}, Reason: "block larger than frame"}
		}
		if bs.MaxOffset < 0 {
			return badParam("glitch.blockshift.maxoffset", bs.MaxOffset, "must be >= 0")
		}
	}
	if sl := p.Glitch.ScanLine; sl.Enabled && (sl.MaxBand < 1 || sl.MaxBand > size.Y) {
		return badParam("glitch.scanline.maxband", sl.MaxBand, "must be in [1,%d]", size.Y)
	}
	bp := p.Glitch.BitPlane
	if bp.Enabled {
		for _, s := range bp.Swaps {
			if s[0] < 0 || s[0] > 15 || s[1] < 0 || s[1] > 15 {
				return badParam("glitch.bitplane.swaps", s, "bits must be in [0,15]")
			}
		}
		if bp.RandomSwaps < 0 {
			return badParam("glitch.bitplane.randomswaps", bp.RandomSwaps, "must be >= 0")
		}
		if !bp.Region.Empty() && !bp.Region.In(image.Rectangle{Max: size}) {
			return &DimensionMismatch{Stage: "glitch.bitplane", Frame: size,
				Need: bp.Region.Max, Reason: fmt.Sprintf("region %v outside frame", bp.Region)}
		}
	}
	return nil
}
