package ccd

import (
	"image"
	"math"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/ccd-glitch/pkg/ecolor"
	"github.com/abworrall/ccd-glitch/pkg/emath"
)

var swapSources = [...][3]int{
	SwapNone: {0, 1, 2},
	SwapRG:   {1, 0, 2},
	SwapRB:   {2, 1, 0},
	SwapGB:   {0, 2, 1},
	SwapBRG:  {2, 0, 1},
	SwapGBR:  {1, 2, 0},
}

// colorStage turns the demosaiced linear frame into display values.
type colorStage struct {
	ColorParams
	mix    emath.Mat3 // gain then channel swap
	offset emath.Vec3 // offset, already swapped
}

func newColorStage(p ColorParams) *colorStage {
	perm := emath.Permutation(swapSources[p.Swap])
	return &colorStage{
		ColorParams: p,
		mix:         perm.Mult(p.Gain.Diag()),
		offset:      perm.Apply(p.Offset),
	}
}

func (s *colorStage) Name() string  { return "color" }
func (s *colorStage) Enabled() bool { return s.ColorParams.Enabled }

func (s *colorStage) encode(v float64) float64 {
	switch s.Gamma {
	case GammaSRGB:
		return emath.GammaExpand_F64(math.Max(0, v))
	case GammaPower:
		return emath.GammaExpand_Power(v, s.GammaValue)
	}
	return v
}

func (s *colorStage) pixel(c hdrcolor.RGB) hdrcolor.RGB {
	v := emath.Vec3{c.R, c.G, c.B}
	for i := range v {
		v[i] = s.encode(v[i] * s.WhiteBalance[i])
		v[i] = emath.Clamp((v[i]-0.5)*s.Contrast+0.5+s.Brightness, 0, 1)
	}
	v = s.mix.Apply(v).Add(s.offset)
	return hdrcolor.RGB{R: v[0], G: v[1], B: v[2]}
}

func (s *colorStage) Transform(f *Frame, rng *Rand) {
	rgb := f.RGB
	w, h := rgb.Rect.Dx(), rgb.Rect.Dy()

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				rgb.Set(x, y, s.pixel(rgb.Get(x, y)))
			}
		}
	})

	if s.CAScale != 0 || s.CAOffsetR != (image.Point{}) || s.CAOffsetB != (image.Point{}) {
		s.aberrate(rgb)
	}

	for i, c := range rgb.Pix {
		rgb.Pix[i] = ecolor.HDRRGBClamp(c, 0, 1)
	}
}

// aberrate resamples R and B about the frame centre, R magnified by
// 1+CAScale and B by 1-CAScale, then moved by their offsets.
func (s *colorStage) aberrate(rgb *RGBFrame) {
	src := rgb.Copy()
	w, h := rgb.Rect.Dx(), rgb.Rect.Dy()
	cx, cy := float64(w-1)/2, float64(h-1)/2
	mr := shiftBy(s.CAOffsetR).Mult(emath.ScaleAbout(1+s.CAScale, cx, cy))
	mb := shiftBy(s.CAOffsetB).Mult(emath.ScaleAbout(1-s.CAScale, cx, cy))

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				c := rgb.Get(x, y)
				rx, ry := mr.Apply(float64(x), float64(y))
				bx, by := mb.Apply(float64(x), float64(y))
				c.R = sampleBilinear(src, rx, ry, func(c hdrcolor.RGB) float64 { return c.R })
				c.B = sampleBilinear(src, bx, by, func(c hdrcolor.RGB) float64 { return c.B })
				rgb.Set(x, y, c)
			}
		}
	})
}

// shiftBy maps an output site to the source site a channel moved by
// off came from.
func shiftBy(off image.Point) emath.Aff3 {
	return emath.Identity().Translate(float64(-off.X), float64(-off.Y))
}

// sampleBilinear reads one channel at a fractional position, holding
// the edge values beyond the frame.
func sampleBilinear(rgb *RGBFrame, x, y float64, ch func(hdrcolor.RGB) float64) float64 {
	w, h := rgb.Rect.Dx(), rgb.Rect.Dy()
	x = emath.Clamp(x, 0, float64(w-1))
	y = emath.Clamp(y, 0, float64(h-1))
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	top := ch(rgb.Get(x0, y0))*(1-fx) + ch(rgb.Get(x1, y0))*fx
	bot := ch(rgb.Get(x0, y1))*(1-fx) + ch(rgb.Get(x1, y1))*fx
	return top*(1-fy) + bot*fy
}
