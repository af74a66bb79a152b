package ccd

import (
	"image"
)

// A Frame carries one render through the pipeline. Each stage reads
// the representation the previous stage left and replaces or updates
// it: the sensor fills Charge, the ADC turns Charge into Raw, demosaic
// turns Raw into RGB.
type Frame struct {
	Input  image.Image
	Bounds image.Rectangle

	Charge *SensorFrame
	Raw    *RawDigitalFrame
	RGB    *RGBFrame

	Degeneracies *Degeneracies
}

func (f *Frame) Dx() int { return f.Bounds.Dx() }
func (f *Frame) Dy() int { return f.Bounds.Dy() }

// A Stage is one step of the signal path. Disabled stages are skipped,
// which leaves the frame as it was.
type Stage interface {
	Name() string
	Enabled() bool
	Transform(f *Frame, rng *Rand)
}

// A converter is a stage that changes the frame's representation. When
// disabled it still has to hand on an ideal, lossless conversion so the
// stages after it have something to work on.
type converter interface {
	Bypass(f *Frame)
}

// Salts for the per-row generators, one per stage that draws per row.
const (
	saltNoise uint64 = iota + 1
	saltAmplifier
	saltADC
	saltADCTable
	saltVClock
	saltHClock
)
