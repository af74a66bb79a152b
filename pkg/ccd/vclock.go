package ccd

import (
	"math"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// vclockStage moves charge down the columns into the serial register,
// which sits along row 0. Each column carries a charge trap that holds
// back a (1-CTE) share of every packet and releases it into the next
// one, so bright sites trail into the rows after them.
type vclockStage struct {
	VClockParams
	cte   float64
	smear float64
}

func newVClockStage(sc SensorConfig, p VClockParams) *vclockStage {
	s := &vclockStage{VClockParams: p, cte: p.CTE, smear: p.ParallelSmear}
	if s.cte == 0 {
		s.cte = sc.CTEVertical
	}
	if sc.Architecture == Interline {
		// The photodiodes are shielded during transfer
		s.smear /= 100
	}
	return s
}

func (s *vclockStage) Name() string  { return "vclock" }
func (s *vclockStage) Enabled() bool { return s.VClockParams.Enabled }

func (s *vclockStage) Transform(f *Frame, rng *Rand) {
	sf := f.Charge
	for _, pl := range sf.Planes {
		s.transfer(pl)
		s.parallelSmear(pl)
		s.waveform(pl)
		s.rowGlitches(pl, sf.FullWell, rng)
		f.Degeneracies.Add(s.Name(), clampCharge(pl))
	}
}

// transfer runs each column through the trap, nearest the register first.
func (s *vclockStage) transfer(pl *emath.FloatGrid) {
	c := s.cte
	if c >= 1 {
		return
	}
	h := pl.Dy()
	parallelRows(pl.Dx(), func(x0, x1 int) {
		for x := x0; x < x1; x++ {
			deferred := 0.0
			for y := 0; y < h; y++ {
				v := pl.Get(x, y)
				pl.Set(x, y, c*v+(1-c)*deferred)
				deferred = c*deferred + (1-c)*v
			}
		}
	})
}

func (s *vclockStage) parallelSmear(pl *emath.FloatGrid) {
	if s.smear <= 0 {
		return
	}
	h := pl.Dy()
	for x := 0; x < pl.Dx(); x++ {
		sum := 0.0
		for y := 0; y < h; y++ {
			sum += pl.Get(x, y)
		}
		add := sum / float64(h) * s.smear
		for y := 0; y < h; y++ {
			pl.Add(x, y, add)
		}
	}
}

// waveform modulates the transfer efficiency row by row, as a clock
// with a distorted edge would.
func (s *vclockStage) waveform(pl *emath.FloatGrid) {
	d := s.WaveformDistortion
	if d <= 0 {
		return
	}
	h := pl.Dy()
	for y := 0; y < h; y++ {
		m := math.Max(0, 1+d*math.Sin(4*2*math.Pi*float64(y)/float64(h)))
		row := pl.Row(y)
		for x := range row {
			row[x] *= m
		}
	}
}

// rowGlitches runs in row order: a repeat writes into the row after,
// which a later glitch may read.
func (s *vclockStage) rowGlitches(pl *emath.FloatGrid, fw float64, rng *Rand) {
	if s.RowGlitchProb <= 0 {
		return
	}
	kinds := s.RowGlitches
	if len(kinds) == 0 {
		kinds = []RowGlitch{RowSkip, RowRepeat, RowReverse, RowShift, RowDistort}
	}
	w, h := pl.Dx(), pl.Dy()
	tmp := make([]float64, w)

	for y := 0; y < h; y++ {
		if !rng.Chance(s.RowGlitchProb) {
			continue
		}
		row := pl.Row(y)
		switch kinds[rng.Intn(len(kinds))] {
		case RowSkip:
			src := y - 1
			if src < 0 {
				src = min(1, h-1)
			}
			copy(row, pl.Row(src))
		case RowRepeat:
			if y+1 < h {
				copy(pl.Row(y+1), row)
			}
		case RowReverse:
			for x := range row {
				tmp[x] = row[w-1-x]
			}
			copy(row, tmp)
		case RowShift:
			shift := rng.Between(1, max(1, min(63, w-1)))
			for x := range row {
				tmp[x] = row[emath.Wrap(x-shift, w)]
			}
			copy(row, tmp)
		case RowDistort:
			amp := s.WaveformAmplitude
			if rng.Chance(0.5) {
				m := 1 + rng.Normal(0, amp)
				for x := range row {
					row[x] *= m
				}
			} else {
				a := rng.Normal(0, amp*fw)
				for x := range row {
					row[x] += a
				}
			}
		}
	}
}

// clampCharge floors a plane at zero, replacing non-finite values. It
// returns how many sites were non-finite.
func clampCharge(pl *emath.FloatGrid) int {
	bad := 0
	vals := pl.Values()
	for i, v := range vals {
		switch {
		case !emath.IsFinite(v):
			vals[i] = 0
			bad++
		case v < 0:
			vals[i] = 0
		}
	}
	return bad
}
