package ccd

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/abworrall/ccd-glitch/pkg/emath"
)

// A SensorConfig describes a physical CCD. It is a plain record; the
// pipeline never modifies one.
type SensorConfig struct {
	Name              string
	Width             int     // photosites
	Height            int     // photosites
	PixelPitchX       float64 // µm
	PixelPitchY       float64 // µm
	FullWellNoABG     float64 // electrons, without anti-blooming gate
	FullWellABG       float64 // electrons, with anti-blooming gate
	CFA               CFAPattern
	Architecture      Architecture
	VerticalPhases    int
	ReadNoise         float64 // electrons rms
	DarkCurrent       float64 // pA/cm² at 25°C
	CTEVertical       float64
	CTEHorizontal     float64
	OutputSensitivity float64 // µV per electron
}

const electronCharge = 1.602176634e-19 // coulombs

func (sc SensorConfig) FullWell(useABG bool) float64 {
	if useABG {
		return sc.FullWellABG
	}
	return sc.FullWellNoABG
}

// DarkElectronsPerSecond converts the dark current density into electrons
// per second for one photosite.
func (sc SensorConfig) DarkElectronsPerSecond() float64 {
	areaCm2 := sc.PixelPitchX * sc.PixelPitchY * 1e-8
	return sc.DarkCurrent * 1e-12 * areaCm2 / electronCharge
}

func (sc SensorConfig) String() string {
	return fmt.Sprintf("%s: %dx%d %s %s, pitch %.1fx%.1fµm, FW %.0f/%.0f e-, CTE %g/%g, read %.0f e-",
		sc.Name, sc.Width, sc.Height, sc.Architecture, sc.CFA, sc.PixelPitchX, sc.PixelPitchY,
		sc.FullWellNoABG, sc.FullWellABG, sc.CTEVertical, sc.CTEHorizontal, sc.ReadNoise)
}

// Validate checks the record is physically meaningful. A zero full well
// is allowed (it renders as black); a negative one is not.
func (sc SensorConfig) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"sensor.pixelpitchx", sc.PixelPitchX},
		{"sensor.pixelpitchy", sc.PixelPitchY},
		{"sensor.fullwellnoabg", sc.FullWellNoABG},
		{"sensor.fullwellabg", sc.FullWellABG},
		{"sensor.readnoise", sc.ReadNoise},
		{"sensor.darkcurrent", sc.DarkCurrent},
		{"sensor.outputsensitivity", sc.OutputSensitivity},
	}
	for _, c := range checks {
		if !emath.IsFinite(c.v) || c.v < 0 {
			return badParam(c.name, c.v, "must be finite and >= 0")
		}
	}
	if sc.Width < 0 || sc.Height < 0 {
		return badParam("sensor.width", fmt.Sprintf("%dx%d", sc.Width, sc.Height), "must be >= 0")
	}
	if !validEnum(int(sc.CFA), len(cfaNames)) {
		return badParam("sensor.cfa", int(sc.CFA), "unknown pattern")
	}
	if !validEnum(int(sc.Architecture), len(architectureNames)) {
		return badParam("sensor.architecture", int(sc.Architecture), "unknown architecture")
	}
	if cte := sc.CTEVertical; math.IsNaN(cte) || cte <= 0 || cte > 1 {
		return badParam("sensor.ctevertical", cte, "must be in (0,1]")
	}
	if cte := sc.CTEHorizontal; math.IsNaN(cte) || cte <= 0 || cte > 1 {
		return badParam("sensor.ctehorizontal", cte, "must be in (0,1]")
	}
	return nil
}

// The reference sensors. Values from the manufacturers' datasheets.
var presets = map[string]SensorConfig{
	"KAF-6303": {
		Name: "KAF-6303", Width: 3072, Height: 2048, PixelPitchX: 9, PixelPitchY: 9,
		FullWellNoABG: 100000, FullWellABG: 40000, CFA: RGGB, Architecture: FullFrame,
		VerticalPhases: 3, ReadNoise: 11, DarkCurrent: 15,
		CTEVertical: 0.999995, CTEHorizontal: 0.999999, OutputSensitivity: 7.5,
	},
	"KAF-4320": {
		Name: "KAF-4320", Width: 2048, Height: 2048, PixelPitchX: 24, PixelPitchY: 24,
		FullWellNoABG: 150000, FullWellABG: 90000, CFA: RGGB, Architecture: FullFrame,
		VerticalPhases: 3, ReadNoise: 12, DarkCurrent: 20,
		CTEVertical: 0.999995, CTEHorizontal: 0.999999, OutputSensitivity: 4.5,
	},
	"KAF-16803": {
		Name: "KAF-16803", Width: 4096, Height: 4096, PixelPitchX: 9, PixelPitchY: 9,
		FullWellNoABG: 100000, FullWellABG: 60000, CFA: RGGB, Architecture: FullFrame,
		VerticalPhases: 2, ReadNoise: 9, DarkCurrent: 5,
		CTEVertical: 0.999998, CTEHorizontal: 0.999999, OutputSensitivity: 8.0,
	},
	"ICX059CL": {
		Name: "ICX059CL", Width: 500, Height: 582, PixelPitchX: 9.8, PixelPitchY: 6.3,
		FullWellNoABG: 30000, FullWellABG: 30000, CFA: RGGB, Architecture: Interline,
		VerticalPhases: 4, ReadNoise: 40, DarkCurrent: 15,
		CTEVertical: 0.99999, CTEHorizontal: 0.99999, OutputSensitivity: 10,
	},
	"Custom": {
		Name: "Custom", Width: 1024, Height: 1024, PixelPitchX: 9, PixelPitchY: 9,
		FullWellNoABG: 100000, FullWellABG: 40000, CFA: RGGB, Architecture: FullFrame,
		VerticalPhases: 3, ReadNoise: 10, DarkCurrent: 10,
		CTEVertical: 0.999995, CTEHorizontal: 0.999999, OutputSensitivity: 8,
	},
}

// Preset returns a copy of the named reference sensor. Names are
// matched case-insensitively.
func Preset(name string) (SensorConfig, error) {
	for k, sc := range presets {
		if strings.EqualFold(k, name) {
			return sc, nil
		}
	}
	return SensorConfig{}, badParam("preset", name, "want one of %s", ListPresets())
}

func PresetNames() []string {
	names := []string{}
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func ListPresets() string {
	return fmt.Sprintf("%v", PresetNames())
}
