// ccd-sweep renders one image repeatedly while stepping a single
// parameter, so you can see what the parameter does.
//
//	ccd-sweep -param vclock.cte -from 0.9 -to 1 -steps 5 config.yaml in.png
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/abworrall/ccd-glitch/pkg/ccd"
	"github.com/abworrall/ccd-glitch/pkg/ccdio"
)

var (
	Log *log.Logger

	fParam      string
	fFrom       float64
	fTo         float64
	fSteps      int
	fPrefix     string
	fSeedPolicy string
	fVerbosity  int
)

func init() {
	flag.StringVar(&fParam, "param", "vclock.cte", "dotted path of the parameter to sweep, under params:")
	flag.Float64Var(&fFrom, "from", 0.9, "first value")
	flag.Float64Var(&fTo, "to", 1.0, "last value")
	flag.IntVar(&fSteps, "steps", 5, "number of renders")
	flag.StringVar(&fPrefix, "prefix", "sweep", "output filename prefix")
	flag.StringVar(&fSeedPolicy, "seedpolicy", "fixed", "fixed keeps the noise identical across steps; advance varies it")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.Parse()

	Log = log.New(os.Stdout, "", log.Ldate|log.Ltime)
	log.Printf("Starting\n")
}

// overlayFor turns "vclock.cte" and 0.9 into the YAML that sets
// params.vclock.cte to 0.9.
func overlayFor(path string, v float64) ([]byte, error) {
	var node interface{} = v
	keys := append([]string{"params"}, strings.Split(path, ".")...)
	for i := len(keys) - 1; i >= 0; i-- {
		node = map[string]interface{}{keys[i]: node}
	}
	return yaml.Marshal(node)
}

func main() {
	if fSteps < 1 {
		log.Fatalf("-steps must be >= 1, got %d", fSteps)
	}

	wl := ccdio.NewWorkload()
	if err := wl.LoadFilesAndDirs(flag.Args()...); err != nil {
		Log.Fatal(err)
	}
	if len(wl.Inputs) != 1 {
		log.Fatalf("want exactly one input image, got %d", len(wl.Inputs))
	}
	in := wl.Inputs[0]

	pol, err := ccd.ParseSeedPolicy(fSeedPolicy)
	if err != nil {
		log.Fatal(err)
	}

	// One session carries the seed sequence across every step.
	var sess *ccd.Session
	for i := 0; i < fSteps; i++ {
		v := fFrom
		if fSteps > 1 {
			v = fFrom + (fTo-fFrom)*float64(i)/float64(fSteps-1)
		}

		cfg := wl.Config
		cfg.Verbosity = fVerbosity
		cfg.SeedPolicy = pol
		overlay, err := overlayFor(fParam, v)
		if err != nil {
			log.Fatal(err)
		}
		if err := cfg.Overlay(overlay); err != nil {
			log.Fatalf("%s=%g: %v", fParam, v, err)
		}

		pl, err := cfg.NewPipeline()
		if err != nil {
			log.Fatalf("%s=%g: %v", fParam, v, err)
		}
		if sess == nil {
			sess = ccd.NewSession(pl, cfg.Seed, cfg.SeedPolicy)
		} else {
			sess.Pipeline = pl
		}

		res, err := sess.Render(context.Background(), in.Image)
		if err != nil {
			log.Fatalf("%s=%g: %v", fParam, v, err)
		}

		out := res.RGB.ToRGBA64()
		filename := fmt.Sprintf("%s-%02d.png", fPrefix, i)
		if err := ccdio.WritePNG(out, filename); err != nil {
			log.Fatal(err)
		}

		diff := ccdio.ImgDiff(in.Image, out)
		Log.Printf("%s=%-10g seed %-6d %s -> %s\n", fParam, v, res.Seed, diff, filename)
		if fVerbosity > 0 {
			if err := diff.WriteDiff(fmt.Sprintf("%s=%g", fParam, v), fmt.Sprintf("%s-%02d-diff.png", fPrefix, i)); err != nil {
				log.Fatal(err)
			}
		}
	}
}
