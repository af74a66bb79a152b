package ccd

import (
	"fmt"
	"image"
)

// A SiteTrace follows one site through the pipeline, recording what it
// held after each stage. Site is in the input image's coordinates.
type SiteTrace struct {
	Site  image.Point
	Steps []TraceStep
}

type TraceStep struct {
	Stage   string
	Skipped bool
	Value   string
}

func (st *SiteTrace) record(f *Frame, stage string, skipped bool) {
	x, y := st.Site.X-f.Bounds.Min.X, st.Site.Y-f.Bounds.Min.Y
	step := TraceStep{Stage: stage, Skipped: skipped}

	switch {
	case f.RGB != nil:
		c := f.RGB.Get(x, y)
		step.Value = fmt.Sprintf("rgb   [%12.10f, %12.10f, %12.10f]", c.R, c.G, c.B)
	case f.Raw != nil:
		step.Value = "codes ["
		for p := range f.Raw.Planes {
			step.Value += fmt.Sprintf(" %6d", f.Raw.At(p, x, y))
		}
		step.Value += " ]"
	case f.Charge != nil:
		step.Value = "e-    ["
		for p, pl := range f.Charge.Planes {
			step.Value += fmt.Sprintf(" %s:%12.2f", f.Charge.ChannelOf(p, x, y), pl.Get(x, y))
		}
		step.Value += " ]"
	}
	st.Steps = append(st.Steps, step)
}

func (st SiteTrace) String() string {
	str := fmt.Sprintf("----- Site @(%d,%d) -----\n", st.Site.X, st.Site.Y)
	for _, s := range st.Steps {
		skip := ""
		if s.Skipped {
			skip = " (bypassed)"
		}
		str += fmt.Sprintf("%-10s: %s%s\n", s.Stage, s.Value, skip)
	}
	return str + "\n"
}
