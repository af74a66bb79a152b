package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"

	"github.com/abworrall/ccd-glitch/pkg/ccd"
	"github.com/abworrall/ccd-glitch/pkg/ccdio"
)

var (
	fVerbosity   int
	fPreset      string
	fListPresets bool
	fSeed        uint64
	fSeedPolicy  string
	fOutput      string
	fHDR         bool
	fTonemapper  string
	fResize      bool
	fCFA         string
	fDemosaic    string
	fBitDepth    int
	fExposure    float64
	fBypass      bool
	fQuiet       bool
	fSet         string
	fDebugSites  string
	fDumpPrefix  string
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get (2 dumps every charge plane)")
	flag.StringVar(&fPreset, "preset", "", "sensor preset: "+ccd.ListPresets())
	flag.BoolVar(&fListPresets, "listpresets", false, "print the sensor presets and exit")
	flag.Uint64Var(&fSeed, "seed", 0, "random seed (0 keeps the config's)")
	flag.StringVar(&fSeedPolicy, "seedpolicy", "", "fixed, or advance (each input gets the next seed)")
	flag.StringVar(&fOutput, "o", "out.png", "output file; the extension picks the format. With several inputs, used as a suffix")
	flag.BoolVar(&fHDR, "hdr", false, "also write the linear frame as Radiance .hdr")
	flag.StringVar(&fTonemapper, "tonemapper", "", "also write tonemapped previews: "+ccdio.ListTonemappers()+", or all")
	flag.BoolVar(&fResize, "resize", false, "letterbox the input to the sensor's resolution first")
	flag.StringVar(&fCFA, "cfa", "", "override the sensor's CFA pattern (rggb, bggr, grbg, gbrg)")
	flag.StringVar(&fDemosaic, "demosaic", "", "demosaic algorithm (mhc, bilinear, none)")
	flag.IntVar(&fBitDepth, "bits", 0, "ADC bit depth, 1-16")
	flag.Float64Var(&fExposure, "exposure", 0, "exposure, 1.0 fills the reference well")
	flag.BoolVar(&fBypass, "bypass", false, "switch every stage off (output should equal input)")
	flag.BoolVar(&fQuiet, "quiet", false, "switch off all noise and glitches")
	flag.StringVar(&fSet, "set", "", "YAML applied over the config, e.g. 'params: {vclock: {cte: 0.9}}'")
	flag.StringVar(&fDebugSites, "debugsites", "", "sites to trace, as x,y;x,y")
	flag.StringVar(&fDumpPrefix, "dumpprefix", "", "filename prefix for the -v=2 plane dumps")
	flag.Parse()

	log.Printf("ccd-glitch starting\n")
}

func parseSites(s string) ([]image.Point, error) {
	sites := []image.Point{}
	for _, str := range strings.Split(s, ";") {
		if str == "" {
			continue
		}
		var p image.Point
		if _, err := fmt.Sscanf(str, "%d,%d", &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("debug site %q: %w", str, err)
		}
		sites = append(sites, p)
	}
	return sites, nil
}

// applyFlags overrides the loaded config with whatever was given on the
// command line.
func applyFlags(cfg *ccd.Config) error {
	if fSet != "" {
		if err := cfg.Overlay([]byte(fSet)); err != nil {
			return err
		}
	}
	if fPreset != "" {
		cfg.Preset = fPreset
	}
	if fSeed != 0 {
		cfg.Seed = fSeed
	}
	if fSeedPolicy != "" {
		pol, err := ccd.ParseSeedPolicy(fSeedPolicy)
		if err != nil {
			return err
		}
		cfg.SeedPolicy = pol
	}
	if fDemosaic != "" {
		alg, err := ccd.ParseDemosaicAlgorithm(fDemosaic)
		if err != nil {
			return err
		}
		cfg.Params.Demosaic.Algorithm = alg
	}
	if fBitDepth != 0 {
		cfg.Params.ADC.BitDepth = fBitDepth
	}
	if fExposure > 0 {
		cfg.Params.Sensor.Exposure = fExposure
	}
	if fQuiet {
		cfg.Params = cfg.Params.Quiet()
	}
	if fBypass {
		cfg.Params = cfg.Params.Bypassed()
	}
	if fDebugSites != "" {
		sites, err := parseSites(fDebugSites)
		if err != nil {
			return err
		}
		cfg.DebugSites = sites
	}
	if fDumpPrefix != "" {
		cfg.DumpPrefix = fDumpPrefix
	}
	cfg.Verbosity = fVerbosity
	return nil
}

// overrideCFA swaps the sensor's CFA pattern by registering a modified
// copy of it under the same name.
func overrideCFA(cfg *ccd.Config) error {
	if fCFA == "" {
		return nil
	}
	pat, err := ccd.ParseCFAPattern(fCFA)
	if err != nil {
		return err
	}
	sc, err := cfg.SensorConfig()
	if err != nil {
		return err
	}
	sc.CFA = pat
	cfg.Presets[cfg.Preset] = sc
	return nil
}

func outputName(in string, n int) string {
	if n == 1 {
		return fOutput
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return base + "-" + fOutput
}

func main() {
	if fListPresets {
		for _, name := range ccd.PresetNames() {
			sc, _ := ccd.Preset(name)
			fmt.Println(sc)
		}
		return
	}

	wl := ccdio.NewWorkload()
	if err := wl.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}
	if len(wl.Inputs) == 0 {
		log.Fatal("no input images given")
	}

	cfg := wl.Config
	if err := applyFlags(&cfg); err != nil {
		log.Fatal(err)
	}
	if err := overrideCFA(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	sess, err := cfg.NewSession()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Sensor %s\n", sess.Pipeline.Sensor)

	for _, in := range wl.Inputs {
		img := in.Image
		if fResize {
			img = ccdio.ResizeToSensor(img, sess.Pipeline.Sensor.Width, sess.Pipeline.Sensor.Height)
		}

		res, err := sess.Render(context.Background(), img)
		if err != nil {
			log.Fatalf("render %s: %v", in.Filename, err)
		}
		for _, tr := range res.Traces {
			fmt.Print(tr)
		}
		if n := res.Degeneracies.Total(); n > 0 {
			log.Printf("%s: %d sites needed a numeric fallback (%s)\n", in.Filename, n, res.Degeneracies)
		}

		out := outputName(in.Filename, len(wl.Inputs))
		if err := ccdio.WriteImage(res.RGB.ToRGBA64(), out); err != nil {
			log.Fatal(err)
		}
		log.Printf("%s -> %s (seed %d)\n", in.Filename, out, res.Seed)

		base := strings.TrimSuffix(out, filepath.Ext(out))
		if fHDR {
			if err := ccdio.WriteImage(res.RGB, base+".hdr"); err != nil {
				log.Fatal(err)
			}
		}
		if fTonemapper != "" {
			if err := ccdio.WriteTonemapped(res.RGB, fTonemapper, base+"-tmo"); err != nil {
				log.Fatal(err)
			}
		}
	}
}
