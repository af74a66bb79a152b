package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
	"gonum.org/v1/gonum/floats"
)

// A FloatGrid is a grid of floats, stored row by row. The sensor
// pipeline keeps one FloatGrid per charge plane.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) *FloatGrid {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (fg *FloatGrid) NewFromThis() *FloatGrid { return NewFloatGrid(fg.Dx(), fg.Dy()) }
func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Add(x, y int, v float64) { fg.values[fg.stride*y+x] += v }
func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Values() []float64       { return fg.values }
func (fg *FloatGrid) Bounds() image.Rectangle { return image.Rect(0, 0, fg.Dx(), fg.Dy()) }
func (fg *FloatGrid) In(x, y int) bool        { return x >= 0 && y >= 0 && x < fg.Dx() && y < fg.Dy() }
func (fg *FloatGrid) Row(y int) []float64     { return fg.values[fg.stride*y : fg.stride*(y+1)] }
func (fg *FloatGrid) CopyFrom(src *FloatGrid) { copy(fg.values, src.values) }

func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

func (fg *FloatGrid) Copy() *FloatGrid {
	g2 := FloatGrid{stride: fg.stride, values: make([]float64, len(fg.values))}
	copy(g2.values, fg.values)
	return &g2
}

// GetClamped reads the grid, treating coords outside it as the nearest edge value.
func (fg *FloatGrid) GetClamped(x, y int) float64 {
	return fg.Get(ClampInt(x, 0, fg.Dx()-1), ClampInt(y, 0, fg.Dy()-1))
}

// Sum is the total of all values in the grid; for a charge plane, the
// total number of electrons.
func (fg *FloatGrid) Sum() float64 {
	return floats.Sum(fg.values)
}

func (fg *FloatGrid) MinMax() (float64, float64) {
	if len(fg.values) == 0 {
		return 0, 0
	}
	return floats.Min(fg.values), floats.Max(fg.values)
}

// Clamp forces every value into [lo, hi]. Non-finite values are
// replaced by lo; the number of those replacements is returned.
func (fg *FloatGrid) Clamp(lo, hi float64) int {
	n := 0
	for i, v := range fg.values {
		if !IsFinite(v) {
			n++
			v = lo
		}
		fg.values[i] = Clamp(v, lo, hi)
	}
	return n
}

func (fg *FloatGrid) Stats() string {
	lo, hi := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, sum %.0f]", fg.Dx(), fg.Dy(), lo, hi, fg.Sum())
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid) ToImg(title, filename string) error {
	lo, hi := fg.MinMax()
	span := hi - lo
	if span <= 0 || !IsFinite(span) {
		span = 1
	}

	img := image.NewRGBA64(fg.Bounds())
	for y := 0; y < fg.Dy(); y++ {
		for x := 0; x < fg.Dx(); x++ {
			gray := GammaExpand_F64(Clamp((fg.Get(x, y)-lo)/span, 0, 1))
			v := uint16(math.Round(gray * 65535.0))
			img.SetRGBA64(x, y, color.RGBA64{v, v, v, 0xFFFF})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0, 0)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}
