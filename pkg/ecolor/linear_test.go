package ecolor

import (
	"image/color"
	"math"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

func TestNewLinearRoundTrip(t *testing.T) {
	for _, v := range []uint8{0, 1, 10, 64, 128, 200, 255} {
		in := color.RGBA{v, v, v, 0xFF}

		l := NewLinear(in, true)
		enc := hdrcolor.RGB{
			R: emath.GammaExpand_F64(l.R),
			G: emath.GammaExpand_F64(l.G),
			B: emath.GammaExpand_F64(l.B),
		}
		out := ToRGBA64(enc)
		if got := uint8(out.R >> 8); got != v {
			t.Errorf("sRGB round trip of %d gave %d", v, got)
		}

		raw := NewLinear(in, false)
		if want := float64(v) / 255.0; math.Abs(raw.G-want) > 1e-12 {
			t.Errorf("undecoded %d = %v, want %v", v, raw.G, want)
		}
	}
}

func TestToRGBA64Clamps(t *testing.T) {
	c := ToRGBA64(hdrcolor.RGB{R: -1, G: math.NaN(), B: 7})
	if c.R != 0 || c.G != 0 || c.B != 0xFFFF || c.A != 0xFFFF {
		t.Errorf("ToRGBA64 = %+v", c)
	}
}
