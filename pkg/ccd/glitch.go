package ccd

import (
	"image"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// glitchStage corrupts the digitized frame the way a faulty readout
// chain or a bad memory would. It works on codes, never changes the
// frame's size, and runs its effects in a fixed order: pixel shift,
// block shift, scan lines, bit planes.
type glitchStage struct {
	GlitchParams
}

func (s *glitchStage) Name() string  { return "glitch" }
func (s *glitchStage) Enabled() bool { return s.GlitchParams.Enabled }

func (s *glitchStage) Transform(f *Frame, rng *Rand) {
	rf := f.Raw
	if s.PixelShift.Enabled {
		s.pixelShift(rf, rng)
	}
	if s.BlockShift.Enabled {
		s.blockShift(rf, rng)
	}
	if s.ScanLine.Enabled {
		s.scanLines(rf, rng)
	}
	if s.BitPlane.Enabled {
		s.bitPlanes(rf, rng)
	}
}

// resolve maps a source coordinate back into [0,n).
func resolve(i, n int, b Boundary) int {
	if b == BoundaryClamp {
		return emath.ClampInt(i, 0, n-1)
	}
	return emath.Wrap(i, n)
}

func (s *glitchStage) pixelShift(rf *RawDigitalFrame, rng *Rand) {
	ps := s.PixelShift
	w, h := rf.Width, rf.Height

	dx, dy := ps.DX, ps.DY
	rowShift := make([]int, h)
	for y := range rowShift {
		if ps.MaxRowShift > 0 && rng.Chance(ps.RowProbability) {
			rowShift[y] = rng.Sign() * rng.Between(1, ps.MaxRowShift)
		}
	}
	if rf.Mosaiced {
		// Whole CFA tiles only, or the colors would swap
		dx, dy = dx&^1, dy&^1
		for y := range rowShift {
			rowShift[y] &^= 1
		}
	}

	src := rf.Copy()
	for p := range rf.Planes {
		for y := 0; y < h; y++ {
			sy := resolve(y-dy, h, ps.Boundary)
			for x := 0; x < w; x++ {
				sx := resolve(x-dx-rowShift[y], w, ps.Boundary)
				rf.Set(p, x, y, src.At(p, sx, sy))
			}
		}
	}
}

func (s *glitchStage) blockShift(rf *RawDigitalFrame, rng *Rand) {
	bs := s.BlockShift
	w, h := rf.Width, rf.Height
	src := rf.Copy()

	for by := 0; by < h; by += bs.BlockSize {
		for bx := 0; bx < w; bx += bs.BlockSize {
			if !rng.Chance(bs.Probability) {
				continue
			}
			off := image.Point{
				rng.Between(-bs.MaxOffset, bs.MaxOffset),
				rng.Between(-bs.MaxOffset, bs.MaxOffset),
			}
			if rf.Mosaiced {
				// Whole CFA tiles only, or the colors would swap
				off.X &^= 1
				off.Y &^= 1
			}
			if off == (image.Point{}) {
				continue
			}
			blk := image.Rect(bx, by, bx+bs.BlockSize, by+bs.BlockSize).Intersect(image.Rect(0, 0, w, h))
			for p := range rf.Planes {
				for y := blk.Min.Y; y < blk.Max.Y; y++ {
					sy := resolve(y-off.Y, h, bs.Boundary)
					for x := blk.Min.X; x < blk.Max.X; x++ {
						rf.Set(p, x, y, src.At(p, resolve(x-off.X, w, bs.Boundary), sy))
					}
				}
			}
		}
	}
}

func (s *glitchStage) scanLines(rf *RawDigitalFrame, rng *Rand) {
	sl := s.ScanLine
	modes := sl.Modes
	if len(modes) == 0 {
		modes = []ScanLineMode{ScanZero, ScanMax, ScanNoise, ScanCopy, ScanInvert, ScanXOR}
	}
	maxCode := rf.MaxCode()

	for y := 0; y < rf.Height; y++ {
		if !rng.Chance(sl.Probability) {
			continue
		}
		band := rng.Between(1, sl.MaxBand)
		mode := modes[rng.Intn(len(modes))]
		for y2 := y; y2 < y+band && y2 < rf.Height; y2++ {
			for p := range rf.Planes {
				row := rf.Row(p, y2)
				for x, v := range row {
					switch mode {
					case ScanZero:
						row[x] = 0
					case ScanMax:
						row[x] = maxCode
					case ScanNoise:
						row[x] = uint16(rng.Intn(int(maxCode) + 1))
					case ScanCopy:
						if y2 > 0 {
							row[x] = rf.At(p, x, y2-1)
						}
					case ScanInvert:
						row[x] = maxCode - v
					case ScanXOR:
						row[x] = (v ^ sl.XORMask) & maxCode
					}
				}
			}
		}
		y += band - 1
	}
}

func (s *glitchStage) bitPlanes(rf *RawDigitalFrame, rng *Rand) {
	bp := s.BitPlane
	bits := rf.BitDepth
	maxCode := rf.MaxCode()

	swaps := [][2]int{}
	for _, sw := range bp.Swaps {
		if sw[0] < bits && sw[1] < bits && sw[0] != sw[1] {
			swaps = append(swaps, sw)
		}
	}
	for i := 0; i < bp.RandomSwaps && bits > 1; i++ {
		a := rng.Intn(bits)
		b := (a + rng.Between(1, bits-1)) % bits
		swaps = append(swaps, [2]int{a, b})
	}
	rot := emath.Wrap(bp.Rotate, bits)

	region := bp.Region
	if region.Empty() {
		region = image.Rect(0, 0, rf.Width, rf.Height)
	}
	for p := range rf.Planes {
		for y := region.Min.Y; y < region.Max.Y; y++ {
			row := rf.Row(p, y)
			for x := region.Min.X; x < region.Max.X; x++ {
				v := (row[x] ^ bp.XORMask) & maxCode
				if rot > 0 {
					v = (v<<uint(rot) | v>>uint(bits-rot)) & maxCode
				}
				for _, sw := range swaps {
					a, b := (v>>uint(sw[0]))&1, (v>>uint(sw[1]))&1
					if a != b {
						v ^= 1<<uint(sw[0]) | 1<<uint(sw[1])
					}
				}
				row[x] = v
			}
		}
	}
}
