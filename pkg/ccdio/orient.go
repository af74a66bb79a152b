package ccdio

import (
	"image"
	"image/draw"
)

// Orient returns img turned so that it displays upright, given its
// EXIF orientation. Orientations 5-8 swap width and height. The result
// is anchored at (0,0).
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}

	src := image.NewRGBA64(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	dst := image.NewRGBA64(image.Rect(0, 0, dw, dh))

	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			var dx, dy int
			switch orientation {
			case 2: // Flip horizontal
				dx, dy = w-1-sx, sy
			case 3: // Rotate 180
				dx, dy = w-1-sx, h-1-sy
			case 4: // Flip vertical
				dx, dy = sx, h-1-sy
			case 5: // Transpose
				dx, dy = sy, sx
			case 6: // Rotate 90 CW
				dx, dy = h-1-sy, sx
			case 7: // Transverse
				dx, dy = h-1-sy, w-1-sx
			case 8: // Rotate 90 CCW
				dx, dy = sy, w-1-sx
			}
			dst.SetRGBA64(dx, dy, src.RGBA64At(sx, sy))
		}
	}
	return dst
}
