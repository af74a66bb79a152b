package ccdio

import (
	"fmt"
	"image"
	"math"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// A Diff summarizes how far one image is from another, per channel
// value in [0,1].
type Diff struct {
	Mean   float64 // mean absolute error, over all channels
	Max    float64
	PSNR   float64 // dB; +Inf for identical images
	Pixels int
	Grid   *emath.FloatGrid // per site error, worst channel
}

func (d Diff) String() string {
	return fmt.Sprintf("diff[n=%d, mean %.5f, max %.5f, psnr %.1fdB]", d.Pixels, d.Mean, d.Max, d.PSNR)
}

// ImgDiff compares two images over the region they share, site by
// site, each anchored at its own Min.
func ImgDiff(a, b image.Image) Diff {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := min(ab.Dx(), bb.Dx()), min(ab.Dy(), bb.Dy())
	d := Diff{Grid: emath.NewFloatGrid(w, h), Pixels: w * h}
	if w <= 0 || h <= 0 {
		return d
	}

	totAbs, totSq := 0.0, 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r1, g1, b1, _ := a.At(x+ab.Min.X, y+ab.Min.Y).RGBA()
			r2, g2, b2, _ := b.At(x+bb.Min.X, y+bb.Min.Y).RGBA()
			worst := 0.0
			for _, pair := range [][2]uint32{{r1, r2}, {g1, g2}, {b1, b2}} {
				e := math.Abs(float64(pair[0])-float64(pair[1])) / 0xFFFF
				totAbs += e
				totSq += e * e
				worst = math.Max(worst, e)
			}
			d.Grid.Set(x, y, worst)
			d.Max = math.Max(d.Max, worst)
		}
	}

	n := float64(3 * w * h)
	d.Mean = totAbs / n
	d.PSNR = math.Inf(1)
	if mse := totSq / n; mse > 0 {
		d.PSNR = 10 * math.Log10(1/mse)
	}
	return d
}

// WriteDiff dumps the per site error as an annotated grayscale image.
func (d Diff) WriteDiff(title, filename string) error {
	return d.Grid.ToImg(fmt.Sprintf("%s: %s", title, d), filename)
}
