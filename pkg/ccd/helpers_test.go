package ccd

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
)

func uniformImage(r image.Rectangle, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// gradientImage has every channel varying, so swaps and shifts show up.
func gradientImage(r image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 7), uint8(y * 11), uint8((x + y) * 5), 0xFF})
		}
	}
	return img
}

func mustPreset(t *testing.T, name string) SensorConfig {
	t.Helper()
	sc, err := Preset(name)
	if err != nil {
		t.Fatalf("Preset(%q): %v", name, err)
	}
	return sc
}

func mustRun(t *testing.T, sc SensorConfig, p Params, img image.Image, seed uint64) *Result {
	t.Helper()
	pl, err := NewPipeline(sc, p)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	res, err := pl.Run(context.Background(), img, seed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// chargeFrame builds a single plane charge frame from rows of electrons.
func chargeFrame(fw float64, rows [][]float64) *Frame {
	h, w := len(rows), len(rows[0])
	sf := NewSensorFrame(w, h, 1)
	sf.FullWell, sf.RefWell = fw, fw
	for y, row := range rows {
		for x, v := range row {
			sf.Planes[0].Set(x, y, v)
		}
	}
	return &Frame{Bounds: image.Rect(0, 0, w, h), Charge: sf, Degeneracies: &Degeneracies{}}
}

func rgbOf(r, g, b float64) hdrcolor.RGB { return hdrcolor.RGB{R: r, G: g, B: b} }
