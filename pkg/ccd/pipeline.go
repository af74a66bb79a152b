package ccd

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"
)

// Options control how much a Pipeline tells you about a render. None of
// them change the output.
type Options struct {
	Verbosity  int           // >0 logs timings and summaries, >1 also dumps charge planes as PNGs
	DebugSites []image.Point // sites to trace through every stage
	DumpPrefix string        // filename prefix for the plane dumps
}

// A Pipeline is a validated sensor + parameters, ready to render any
// number of images. It holds no per-render state, so one Pipeline can
// serve concurrent Runs.
type Pipeline struct {
	Sensor SensorConfig
	Params Params
	Options

	stages []Stage
}

// Result is what a render leaves behind: the final image, plus the
// digitized frame and whatever diagnostics were asked for.
type Result struct {
	RGB          *RGBFrame
	Raw          *RawDigitalFrame // after the glitch stage
	Seed         uint64
	Degeneracies *Degeneracies
	Traces       []*SiteTrace
}

func NewPipeline(sc SensorConfig, p Params, opts ...Options) (*Pipeline, error) {
	if err := p.validateRanges(sc); err != nil {
		return nil, err
	}
	pl := &Pipeline{Sensor: sc, Params: p}
	if len(opts) > 0 {
		pl.Options = opts[0]
	}

	pl.stages = []Stage{
		newSensorStage(sc, p.Sensor),
		&cfaStage{p.CFA},
		newNoiseStage(sc, p.Noise),
		newBloomStage(sc, p.Blooming),
		newVClockStage(sc, p.VClock),
		newHClockStage(sc, p.HClock),
		&ampStage{p.Amplifier},
		newADCStage(p.ADC),
		&glitchStage{p.Glitch},
		&demosaicStage{p.Demosaic},
		newColorStage(p.Color),
	}
	return pl, nil
}

// StageNames lists the stages in the order a frame goes through them.
func (pl *Pipeline) StageNames() []string {
	names := []string{}
	for _, st := range pl.stages {
		names = append(names, st.Name())
	}
	return names
}

// Run renders img. The output has the same bounds as img. The context
// is checked between stages; a cancelled render returns ctx.Err().
func (pl *Pipeline) Run(ctx context.Context, img image.Image, seed uint64) (*Result, error) {
	if err := pl.Params.validateGeometry(img.Bounds()); err != nil {
		return nil, err
	}

	rng := NewRand(seed)
	f := &Frame{Input: img, Bounds: img.Bounds(), Degeneracies: &Degeneracies{}}
	res := &Result{Seed: seed, Degeneracies: f.Degeneracies}
	for _, site := range pl.DebugSites {
		if site.In(f.Bounds) {
			res.Traces = append(res.Traces, &SiteTrace{Site: site})
		}
	}

	if pl.Verbosity > 0 {
		log.Printf("Rendering %dx%d through %d stages, seed %d\n", f.Dx(), f.Dy(), len(pl.stages), seed)
	}

	for i, st := range pl.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tStart := time.Now()
		skipped := !st.Enabled()
		if !skipped {
			st.Transform(f, rng.Derive(0, i))
		} else if conv, ok := st.(converter); ok {
			conv.Bypass(f)
		}

		for _, tr := range res.Traces {
			tr.record(f, st.Name(), skipped)
		}
		if pl.Verbosity > 0 && !skipped {
			log.Printf("  %-10s %s\n", st.Name(), time.Since(tStart))
		}
		if err := pl.dump(f, i, st.Name()); err != nil {
			return nil, err
		}
	}

	if pl.Verbosity > 0 {
		log.Printf("Rendered, %s, numeric fallbacks: %s\n", f.Raw.HistogramSummary(), f.Degeneracies)
	}

	res.RGB = f.RGB
	res.Raw = f.Raw
	return res, nil
}

// dump writes each charge plane out as an annotated image, while the
// frame is still charge.
func (pl *Pipeline) dump(f *Frame, i int, name string) error {
	if pl.Verbosity < 2 || f.Charge == nil || f.Raw != nil {
		return nil
	}
	for p, plane := range f.Charge.Planes {
		title := fmt.Sprintf("after %s, plane %d", name, p)
		filename := fmt.Sprintf("%sstage%02d-%s-plane%d.png", pl.DumpPrefix, i, name, p)
		if err := plane.ToImg(title, filename); err != nil {
			return fmt.Errorf("dump %s: %w", name, err)
		}
	}
	return nil
}

// Render runs img once through a pipeline built from sensor and params.
func Render(img image.Image, sensor SensorConfig, params Params, seed uint64) (*RGBFrame, error) {
	return RenderContext(context.Background(), img, sensor, params, seed)
}

func RenderContext(ctx context.Context, img image.Image, sensor SensorConfig, params Params, seed uint64) (*RGBFrame, error) {
	pl, err := NewPipeline(sensor, params)
	if err != nil {
		return nil, err
	}
	res, err := pl.Run(ctx, img, seed)
	if err != nil {
		return nil, err
	}
	return res.RGB, nil
}
