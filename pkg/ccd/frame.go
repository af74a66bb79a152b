package ccd

import (
	"fmt"
	"image"
	"image/color"

	"github.com/codahale/hdrhistogram"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/ccd-glitch/pkg/ecolor"
	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// A SensorFrame is the charge held by the photosites, in electrons,
// while it is read off the chip. Before the CFA it has one plane per
// color; once mosaiced it has a single plane whose site colors come
// from CFA.ChannelAt.
type SensorFrame struct {
	Planes       []*emath.FloatGrid
	Mosaiced     bool
	CFA          CFAPattern
	Architecture Architecture

	FullWell float64 // effective capacity of a photosite, electrons
	RefWell  float64 // the charge a full scale input maps to, electrons

	// The reset level sampled by the amplifier just before each site's
	// signal; nil if the amplifier did not sample one.
	Reset *emath.FloatGrid
}

func NewSensorFrame(w, h, nPlanes int) *SensorFrame {
	f := &SensorFrame{}
	for i := 0; i < nPlanes; i++ {
		f.Planes = append(f.Planes, emath.NewFloatGrid(w, h))
	}
	return f
}

func (f *SensorFrame) Dx() int { return f.Planes[0].Dx() }
func (f *SensorFrame) Dy() int { return f.Planes[0].Dy() }

// ChannelOf says which color plane p, site (x,y) holds.
func (f *SensorFrame) ChannelOf(p, x, y int) Channel {
	if f.Mosaiced {
		return f.CFA.ChannelAt(x, y)
	}
	return Channel(p)
}

func (f *SensorFrame) TotalCharge() float64 {
	tot := 0.0
	for _, pl := range f.Planes {
		tot += pl.Sum()
	}
	return tot
}

func (f *SensorFrame) String() string {
	str := fmt.Sprintf("SensorFrame %dx%d, %d planes, FW %.0f e- [\n", f.Dx(), f.Dy(), len(f.Planes), f.FullWell)
	for i, pl := range f.Planes {
		str += fmt.Sprintf("  plane %d: %s\n", i, pl.Stats())
	}
	return str + "]"
}

// A RawDigitalFrame holds the ADC output codes, one plane per color
// (or a single mosaiced plane), row by row.
type RawDigitalFrame struct {
	Planes   [][]uint16
	Width    int
	Height   int
	BitDepth int
	Mosaiced bool
	CFA      CFAPattern
}

func NewRawDigitalFrame(w, h, nPlanes, bitDepth int) *RawDigitalFrame {
	rf := &RawDigitalFrame{Width: w, Height: h, BitDepth: bitDepth}
	for i := 0; i < nPlanes; i++ {
		rf.Planes = append(rf.Planes, make([]uint16, w*h))
	}
	return rf
}

func (rf *RawDigitalFrame) MaxCode() uint16           { return uint16(1<<uint(rf.BitDepth) - 1) }
func (rf *RawDigitalFrame) At(p, x, y int) uint16     { return rf.Planes[p][y*rf.Width+x] }
func (rf *RawDigitalFrame) Set(p, x, y int, v uint16) { rf.Planes[p][y*rf.Width+x] = v }
func (rf *RawDigitalFrame) Row(p, y int) []uint16     { return rf.Planes[p][y*rf.Width : (y+1)*rf.Width] }
func (rf *RawDigitalFrame) Normalized(p, x, y int) float64 {
	return float64(rf.At(p, x, y)) / float64(rf.MaxCode())
}

func (rf *RawDigitalFrame) Copy() *RawDigitalFrame {
	cp := *rf
	cp.Planes = nil
	for _, pl := range rf.Planes {
		cp.Planes = append(cp.Planes, append([]uint16(nil), pl...))
	}
	return &cp
}

// Histogram records every code in the frame.
func (rf *RawDigitalFrame) Histogram() (*hdrhistogram.Histogram, error) {
	h := hdrhistogram.New(1, 1<<16, 3)
	for _, pl := range rf.Planes {
		for _, v := range pl {
			if err := h.RecordValue(int64(v)); err != nil {
				return nil, fmt.Errorf("histogram code %d: %v", v, err)
			}
		}
	}
	return h, nil
}

// HistogramSummary is a one line description of the code distribution.
func (rf *RawDigitalFrame) HistogramSummary() string {
	h, err := rf.Histogram()
	if err != nil {
		return fmt.Sprintf("codes[%d bit, %v]", rf.BitDepth, err)
	}
	return fmt.Sprintf("codes[%d bit, n=%d, min %d, p1 %d, p50 %d, p99 %d, max %d, mean %.1f]",
		rf.BitDepth, h.TotalCount(), h.Min(), h.ValueAtQuantile(1), h.ValueAtQuantile(50),
		h.ValueAtQuantile(99), h.Max(), h.Mean())
}

// An RGBFrame is the reconstructed color image, channels in [0,1].
// Implements image.Image and hdr.Image.
type RGBFrame struct {
	Rect image.Rectangle // Keeps the input image's bounds
	Pix  []hdrcolor.RGB  // Row by row, from Rect.Min
}

func NewRGBFrame(r image.Rectangle) *RGBFrame {
	return &RGBFrame{Rect: r, Pix: make([]hdrcolor.RGB, r.Dx()*r.Dy())}
}

// Implement image.Image
func (rgb *RGBFrame) ColorModel() color.Model { return hdrcolor.RGBModel }
func (rgb *RGBFrame) Bounds() image.Rectangle { return rgb.Rect }
func (rgb *RGBFrame) At(x, y int) color.Color { return rgb.HDRAt(x, y) }

// Implement hdr.Image
func (rgb *RGBFrame) HDRAt(x, y int) hdrcolor.Color { return rgb.Pix[rgb.offset(x, y)] }
func (rgb *RGBFrame) Size() int                     { return rgb.Rect.Dx() * rgb.Rect.Dy() }

func (rgb *RGBFrame) offset(x, y int) int { return (y-rgb.Rect.Min.Y)*rgb.Rect.Dx() + (x - rgb.Rect.Min.X) }

// Local coords, (0,0) is the top left
func (rgb *RGBFrame) Get(x, y int) hdrcolor.RGB    { return rgb.Pix[y*rgb.Rect.Dx()+x] }
func (rgb *RGBFrame) Set(x, y int, c hdrcolor.RGB) { rgb.Pix[y*rgb.Rect.Dx()+x] = c }

func (rgb *RGBFrame) Copy() *RGBFrame {
	return &RGBFrame{Rect: rgb.Rect, Pix: append([]hdrcolor.RGB(nil), rgb.Pix...)}
}

// ToRGBA64 quantizes the frame for display or encoding.
func (rgb *RGBFrame) ToRGBA64() *image.RGBA64 {
	img := image.NewRGBA64(rgb.Rect)
	for y := 0; y < rgb.Rect.Dy(); y++ {
		for x := 0; x < rgb.Rect.Dx(); x++ {
			img.SetRGBA64(x+rgb.Rect.Min.X, y+rgb.Rect.Min.Y, ecolor.ToRGBA64(rgb.Get(x, y)))
		}
	}
	return img
}
