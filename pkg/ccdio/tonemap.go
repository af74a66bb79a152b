package ccdio

import (
	"fmt"
	"image"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"
)

var (
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemap renders a preview of the linear frame with the named
// operator. The settings keep highlights from blowing out, since a
// glitched frame often has a few very bright sites.
func Tonemap(img hdr.Image, name string) (image.Image, error) {
	op, err := setupTonemapper(img, name)
	if err != nil {
		return nil, err
	}
	return op.Perform(), nil
}

func setupTonemapper(img hdr.Image, name string) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.Contrast = 0.65
		op.MaxClipping = 0.99999
		return op, nil

	case "linear":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Chromatic = 0.005
		op.Light = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted %s", name, ListTonemappers())
}

// WriteTonemapped writes one preview PNG per operator ("all" for every
// one), named prefix-<operator>.png.
func WriteTonemapped(img hdr.Image, which, prefix string) error {
	names := []string{which}
	if which == "all" {
		names = Tonemappers
	}
	for _, name := range names {
		out, err := Tonemap(img, name)
		if err != nil {
			return err
		}
		if err := WritePNG(out, fmt.Sprintf("%s-%s.png", prefix, name)); err != nil {
			return err
		}
	}
	return nil
}
