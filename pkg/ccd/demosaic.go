package ccd

import (
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// demosaicStage rebuilds full color from the mosaic. A frame that was
// never mosaiced already has all three planes and passes through.
type demosaicStage struct {
	DemosaicParams
}

func (s *demosaicStage) Name() string  { return "demosaic" }
func (s *demosaicStage) Enabled() bool { return s.DemosaicParams.Enabled }

func (s *demosaicStage) Transform(f *Frame, rng *Rand) { s.run(f, s.Algorithm) }
func (s *demosaicStage) Bypass(f *Frame)               { s.run(f, DemosaicNone) }

// A mosaic is a normalized single plane view of a RawDigitalFrame.
type mosaic struct {
	v    *emath.FloatGrid
	cfa  CFAPattern
	w, h int
}

// at reads the mosaic with reflect-101 borders, which keep each site's
// CFA color.
func (m mosaic) at(x, y int) float64 {
	return m.v.Get(emath.Reflect101(x, m.w), emath.Reflect101(y, m.h))
}

func (s *demosaicStage) run(f *Frame, alg DemosaicAlgorithm) {
	rf := f.Raw
	out := NewRGBFrame(f.Bounds)
	f.RGB = out

	if !rf.Mosaiced {
		parallelRows(rf.Height, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				for x := 0; x < rf.Width; x++ {
					out.Set(x, y, hdrcolor.RGB{
						R: rf.Normalized(0, x, y),
						G: rf.Normalized(1, x, y),
						B: rf.Normalized(2, x, y),
					})
				}
			}
		})
		return
	}

	m := mosaic{v: emath.NewFloatGrid(rf.Width, rf.Height), cfa: rf.CFA, w: rf.Width, h: rf.Height}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			m.v.Set(x, y, rf.Normalized(0, x, y))
		}
	}
	if alg == MalvarHeCutler && (m.w < 3 || m.h < 3) {
		alg = Bilinear
	}

	parallelRows(m.h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < m.w; x++ {
				var c [3]float64
				switch alg {
				case MalvarHeCutler:
					c = m.mhc(x, y)
				case Bilinear:
					c = m.bilinear(x, y)
				default:
					v := m.v.Get(x, y)
					c = [3]float64{v, v, v}
				}
				out.Set(x, y, hdrcolor.RGB{
					R: emath.Clamp(c[0], 0, 1),
					G: emath.Clamp(c[1], 0, 1),
					B: emath.Clamp(c[2], 0, 1),
				})
			}
		}
	})
}

// bilinear averages each missing channel over the sites of that color
// in the 3x3 neighbourhood that fall inside the frame.
func (m mosaic) bilinear(x, y int) [3]float64 {
	own := m.cfa.ChannelAt(x, y)
	var sum [3]float64
	var n [3]int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if !m.v.In(x+dx, y+dy) {
				continue
			}
			ch := m.cfa.ChannelAt(x+dx, y+dy)
			sum[ch] += m.v.Get(x+dx, y+dy)
			n[ch]++
		}
	}

	var c [3]float64
	for ch := range c {
		switch {
		case Channel(ch) == own:
			c[ch] = m.v.Get(x, y)
		case n[ch] > 0:
			c[ch] = sum[ch] / float64(n[ch])
		default:
			// A frame one site across never sees this color
			c[ch] = m.v.Get(x, y)
		}
	}
	return c
}

// Malvar-He-Cutler 5x5 kernels, as (dx, dy, weight) with weights in eighths.
type tap struct{ dx, dy, w int }

var (
	// G at an R or B site
	mhcGreen = []tap{
		{0, 0, 8}, {-1, 0, 4}, {1, 0, 4}, {0, -1, 4}, {0, 1, 4},
		{-2, 0, -2}, {2, 0, -2}, {0, -2, -2}, {0, 2, -2},
	}
	// R or B at a G site whose horizontal neighbours are that color
	mhcRow = []tap{
		{0, 0, 10}, {-1, 0, 8}, {1, 0, 8}, {-2, 0, -2}, {2, 0, -2},
		{-1, -1, -2}, {1, -1, -2}, {-1, 1, -2}, {1, 1, -2},
		{0, -2, 1}, {0, 2, 1},
	}
	// R at B, or B at R
	mhcDiagonal = []tap{
		{0, 0, 12}, {-1, -1, 4}, {1, -1, 4}, {-1, 1, 4}, {1, 1, 4},
		{-2, 0, -3}, {2, 0, -3}, {0, -2, -3}, {0, 2, -3},
	}
)

// Weights are held doubled, so the kernels divide by 16.
func (m mosaic) apply(x, y int, k []tap, transpose bool) float64 {
	sum := 0.0
	for _, t := range k {
		dx, dy := t.dx, t.dy
		if transpose {
			dx, dy = dy, dx
		}
		sum += float64(t.w) * m.at(x+dx, y+dy)
	}
	return sum / 16
}

func (m mosaic) mhc(x, y int) [3]float64 {
	var c [3]float64
	own := m.cfa.ChannelAt(x, y)
	c[own] = m.v.Get(x, y)

	switch own {
	case Green:
		// Which of R and B sits beside this site on the row
		horiz := m.cfa.ChannelAt(x+1, y)
		vert := Red + Blue - horiz
		c[horiz] = m.apply(x, y, mhcRow, false)
		c[vert] = m.apply(x, y, mhcRow, true)
	default:
		c[Green] = m.apply(x, y, mhcGreen, false)
		c[Red+Blue-own] = m.apply(x, y, mhcDiagonal, false)
	}
	return c
}
