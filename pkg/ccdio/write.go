package ccdio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var writableExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".bmp": true, ".hdr": true,
}

// WriteImage encodes img in the format its filename's extension names.
// A .hdr file gets the linear values in Radiance RGBE, which only works
// for images that carry them (an hdr.Image, such as a ccd.RGBFrame).
func WriteImage(img image.Image, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !writableExts[ext] {
		return fmt.Errorf("write '%s': unknown image format %q", filename, ext)
	}

	var hdrImg hdr.Image
	if ext == ".hdr" {
		var ok bool
		if hdrImg, ok = img.(hdr.Image); !ok {
			return fmt.Errorf("write '%s': %T has no linear values for RGBE", filename, img)
		}
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	defer writer.Close()

	switch ext {
	case ".png":
		err = png.Encode(writer, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(writer, img)
	case ".hdr":
		err = rgbe.Encode(writer, hdrImg)
	}
	if err != nil {
		return fmt.Errorf("encode '%s': %w", filename, err)
	}
	return writer.Close()
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}
