package ccdio

import (
	"image"

	"golang.org/x/image/draw"
)

// ResizeToSensor fits img into a w x h frame the size of the sensor,
// keeping its aspect ratio. Any space left over is black, split evenly
// on both sides.
func ResizeToSensor(img image.Image, w, h int) *image.RGBA64 {
	dst := image.NewRGBA64(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if w <= 0 || h <= 0 || b.Empty() {
		return dst
	}

	sw, sh := w, h
	if b.Dx()*h > b.Dy()*w {
		sh = max(1, b.Dy()*w/b.Dx())
	} else {
		sw = max(1, b.Dx()*h/b.Dy())
	}
	ox, oy := (w-sw)/2, (h-sh)/2

	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+sw, oy+sh), img, b, draw.Src, nil)
	return dst
}
