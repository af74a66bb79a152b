package ccdio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/abworrall/ccd-glitch/pkg/ccd"
)

// An Input is one image found on the command line.
type Input struct {
	Filename string
	Image    image.Image
}

// A Workload is what the command line args amount to: images to render,
// and the config to render them with (the last YAML file seen wins).
type Workload struct {
	Config ccd.Config
	Inputs []Input
}

func NewWorkload() Workload {
	return Workload{Config: ccd.NewConfig()}
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

func (wl *Workload) LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %w", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %w", arg, err)
			}
			for _, content := range contents {
				if err := wl.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return err
				}
			}

		default: // is a file, load it
			if err := wl.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %w", arg, err)
			}
		}
	}

	return nil
}

func (wl *Workload) loadFile(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case imageExts[ext]:
		img, err := LoadImage(filename)
		if err != nil {
			return err
		}
		wl.Inputs = append(wl.Inputs, Input{Filename: filename, Image: img})

	case ext == ".yaml" || ext == ".yml":
		cfg, err := LoadConfigFile(filename)
		if err != nil {
			return err
		}
		wl.Config = cfg
		log.Printf("Loaded base configuration from %s\n", filename)
	}

	return nil
}

func LoadConfigFile(filename string) (ccd.Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return ccd.Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}
	return ccd.ParseConfig(contents)
}

// LoadImage decodes any of the registered formats, and turns JPEGs and
// TIFFs upright according to their EXIF orientation.
func LoadImage(filename string) (image.Image, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %w", filename, err)
	}

	img, format, err := image.Decode(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", filename, err)
	}

	if format == "jpeg" || format == "tiff" {
		img = Orient(img, exifOrientation(contents))
	}
	return img, nil
}

// exifOrientation returns the EXIF orientation tag (1-8), or 1 if the
// file doesn't have a usable one.
func exifOrientation(contents []byte) int {
	if ex, err := exif.Decode(bytes.NewReader(contents)); err != nil {
		return 1
	} else if tag, err := ex.Get(exif.Orientation); err != nil {
		return 1
	} else if val, err := tag.Int(0); err != nil || val < 1 || val > 8 {
		return 1
	} else {
		return val
	}
}
