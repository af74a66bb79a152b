package ecolor

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// A Linear color is a scene value entering (or leaving) the sensor,
// with each channel mapped to [0.0, 1.0]. Whether it is truly linear
// light depends on whether the sRGB transfer curve was removed when it
// was built.
type Linear struct {
	hdrcolor.RGB // This field implements color.Color and hdrcolor.Color interfaces
}

// NewLinear treats the input RGB channels as [0, 0xFFFF]. If
// `decode` is set, the sRGB transfer curve is removed so the channels
// are proportional to light. Alpha is ignored; the sensor sees the
// premultiplied color.
func NewLinear(col color.Color, decode bool) Linear {
	r, g, b, _ := col.RGBA()
	c := colorful.Color{
		R: float64(r) / float64(0xFFFF),
		G: float64(g) / float64(0xFFFF),
		B: float64(b) / float64(0xFFFF),
	}
	if decode {
		c.R, c.G, c.B = c.LinearRgb()
	}
	return Linear{RGB: hdrcolor.RGB{R: c.R, G: c.G, B: c.B}}
}

func (l Linear) String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", l.R, l.G, l.B)
}

func (l Linear) Channel(i int) float64 {
	switch i {
	case 0:
		return l.R
	case 1:
		return l.G
	}
	return l.B
}

// ToRGBA64 quantizes an RGB value in [0,1] to 16 bits per channel,
// clamping anything out of range (and NaNs, to zero).
func ToRGBA64(rgb hdrcolor.RGB) color.RGBA64 {
	q := func(f float64) uint16 { return uint16(math.Round(emath.Clamp(f, 0, 1) * 0xFFFF)) }
	return color.RGBA64{q(rgb.R), q(rgb.G), q(rgb.B), 0xFFFF}
}

func HDRRGBClamp(c1 hdrcolor.RGB, min, max float64) hdrcolor.RGB {
	return hdrcolor.RGB{
		R: emath.Clamp(c1.R, min, max),
		G: emath.Clamp(c1.G, min, max),
		B: emath.Clamp(c1.B, min, max),
	}
}
