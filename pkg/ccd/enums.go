package ccd

import (
	"fmt"
	"strings"
)

// The enumerated settings are written as lowercase names in YAML and
// on the command line, and parsed back with the same tables.

type CFAPattern int

const (
	RGGB CFAPattern = iota
	BGGR
	GRBG
	GBRG
)

var cfaNames = []string{"rggb", "bggr", "grbg", "gbrg"}

// Channel indexes a color plane: R, G or B.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

var channelNames = []string{"R", "G", "B"}

type Architecture int

const (
	FullFrame Architecture = iota
	Interline
)

var architectureNames = []string{"fullframe", "interline"}

// Axis selects the neighbours blooming spills into.
type Axis int

const (
	AxisAuto Axis = iota // vertical for interline sensors, both for full frame
	AxisVertical
	AxisHorizontal
	AxisBoth
)

var axisNames = []string{"auto", "vertical", "horizontal", "both"}

type ReadoutDirection int

const (
	LeftToRight ReadoutDirection = iota
	RightToLeft
	Bidirectional
)

var readoutNames = []string{"lefttoright", "righttoleft", "bidirectional"}

// RowGlitch is a fault the vertical clock can inject into a row.
type RowGlitch int

const (
	RowSkip RowGlitch = iota
	RowRepeat
	RowReverse
	RowShift
	RowDistort
)

var rowGlitchNames = []string{"skip", "repeat", "reverse", "shift", "distort"}

// PixelGlitch is a fault the horizontal clock can inject at a site.
type PixelGlitch int

const (
	PixelSkip PixelGlitch = iota
	PixelRepeat
	PixelOffset
	PixelRing
)

var pixelGlitchNames = []string{"skip", "repeat", "offset", "ring"}

type GlowMode int

const (
	GlowRadial GlowMode = iota
	GlowLinear
)

var glowModeNames = []string{"radial", "linear"}

type Corner int

const (
	BottomRight Corner = iota
	BottomLeft
	TopRight
	TopLeft
)

var cornerNames = []string{"bottomright", "bottomleft", "topright", "topleft"}

// CDSMode controls correlated double sampling in the ADC.
type CDSMode int

const (
	CDSOn CDSMode = iota
	CDSPartial
	CDSOff
)

var cdsNames = []string{"on", "partial", "off"}

type Boundary int

const (
	BoundaryWrap Boundary = iota
	BoundaryClamp
)

var boundaryNames = []string{"wrap", "clamp"}

type ScanLineMode int

const (
	ScanZero ScanLineMode = iota
	ScanMax
	ScanNoise
	ScanCopy
	ScanInvert
	ScanXOR
)

var scanLineNames = []string{"zero", "max", "noise", "copy", "invert", "xor"}

type DemosaicAlgorithm int

const (
	MalvarHeCutler DemosaicAlgorithm = iota
	Bilinear
	DemosaicNone // Each site's sample goes into all three channels
)

var demosaicNames = []string{"mhc", "bilinear", "none"}

type GammaMode int

const (
	GammaSRGB GammaMode = iota
	GammaNone
	GammaPower
)

var gammaNames = []string{"srgb", "none", "power"}

// ChannelSwap remaps color channels; the name lists which channels trade places.
type ChannelSwap int

const (
	SwapNone ChannelSwap = iota
	SwapRG
	SwapRB
	SwapGB
	SwapBRG // output R,G,B taken from input B,R,G
	SwapGBR // output R,G,B taken from input G,B,R
)

var swapNames = []string{"none", "rg", "rb", "gb", "brg", "gbr"}

// SeedPolicy says how a Session picks the seed for each render.
type SeedPolicy int

const (
	SeedFixed   SeedPolicy = iota // every render reuses the base seed
	SeedAdvance                   // every render gets the next seed in sequence
)

var seedPolicyNames = []string{"fixed", "advance"}

func enumString(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("?%d", i)
	}
	return names[i]
}

func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if strings.ToLower(n) == s {
			return i, nil
		}
	}
	return 0, &ConfigurationError{Field: kind, Value: s, Reason: "want one of " + strings.Join(names, ",")}
}

func unmarshalEnum(unmarshal func(interface{}) error, kind string, names []string, out *int) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	i, err := parseEnum(kind, names, s)
	if err != nil {
		return err
	}
	*out = i
	return nil
}

func validEnum(i, n int) bool { return i >= 0 && i < n }

func (v CFAPattern) String() string        { return enumString(cfaNames, int(v)) }
func (v Channel) String() string           { return enumString(channelNames, int(v)) }
func (v Architecture) String() string      { return enumString(architectureNames, int(v)) }
func (v Axis) String() string              { return enumString(axisNames, int(v)) }
func (v ReadoutDirection) String() string  { return enumString(readoutNames, int(v)) }
func (v RowGlitch) String() string         { return enumString(rowGlitchNames, int(v)) }
func (v PixelGlitch) String() string       { return enumString(pixelGlitchNames, int(v)) }
func (v GlowMode) String() string          { return enumString(glowModeNames, int(v)) }
func (v Corner) String() string            { return enumString(cornerNames, int(v)) }
func (v CDSMode) String() string           { return enumString(cdsNames, int(v)) }
func (v Boundary) String() string          { return enumString(boundaryNames, int(v)) }
func (v ScanLineMode) String() string      { return enumString(scanLineNames, int(v)) }
func (v DemosaicAlgorithm) String() string { return enumString(demosaicNames, int(v)) }
func (v GammaMode) String() string         { return enumString(gammaNames, int(v)) }
func (v ChannelSwap) String() string       { return enumString(swapNames, int(v)) }
func (v SeedPolicy) String() string        { return enumString(seedPolicyNames, int(v)) }

func (v CFAPattern) MarshalYAML() (interface{}, error)        { return v.String(), nil }
func (v Architecture) MarshalYAML() (interface{}, error)      { return v.String(), nil }
func (v Axis) MarshalYAML() (interface{}, error)              { return v.String(), nil }
func (v ReadoutDirection) MarshalYAML() (interface{}, error)  { return v.String(), nil }
func (v RowGlitch) MarshalYAML() (interface{}, error)         { return v.String(), nil }
func (v PixelGlitch) MarshalYAML() (interface{}, error)       { return v.String(), nil }
func (v GlowMode) MarshalYAML() (interface{}, error)          { return v.String(), nil }
func (v Corner) MarshalYAML() (interface{}, error)            { return v.String(), nil }
func (v CDSMode) MarshalYAML() (interface{}, error)           { return v.String(), nil }
func (v Boundary) MarshalYAML() (interface{}, error)          { return v.String(), nil }
func (v ScanLineMode) MarshalYAML() (interface{}, error)      { return v.String(), nil }
func (v DemosaicAlgorithm) MarshalYAML() (interface{}, error) { return v.String(), nil }
func (v GammaMode) MarshalYAML() (interface{}, error)         { return v.String(), nil }
func (v ChannelSwap) MarshalYAML() (interface{}, error)       { return v.String(), nil }
func (v SeedPolicy) MarshalYAML() (interface{}, error)        { return v.String(), nil }

func (v *CFAPattern) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "cfa", cfaNames, (*int)(v))
}
func (v *Architecture) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "architecture", architectureNames, (*int)(v))
}
func (v *Axis) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "axis", axisNames, (*int)(v))
}
func (v *ReadoutDirection) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "direction", readoutNames, (*int)(v))
}
func (v *RowGlitch) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "rowglitch", rowGlitchNames, (*int)(v))
}
func (v *PixelGlitch) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "pixelglitch", pixelGlitchNames, (*int)(v))
}
func (v *GlowMode) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "glowmode", glowModeNames, (*int)(v))
}
func (v *Corner) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "corner", cornerNames, (*int)(v))
}
func (v *CDSMode) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "cds", cdsNames, (*int)(v))
}
func (v *Boundary) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "boundary", boundaryNames, (*int)(v))
}
func (v *ScanLineMode) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "scanline", scanLineNames, (*int)(v))
}
func (v *DemosaicAlgorithm) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "demosaic", demosaicNames, (*int)(v))
}
func (v *GammaMode) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "gamma", gammaNames, (*int)(v))
}
func (v *ChannelSwap) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "swap", swapNames, (*int)(v))
}
func (v *SeedPolicy) UnmarshalYAML(u func(interface{}) error) error {
	return unmarshalEnum(u, "seedpolicy", seedPolicyNames, (*int)(v))
}

// Parsers for the command line flags.

func ParseCFAPattern(s string) (CFAPattern, error) {
	i, err := parseEnum("cfa", cfaNames, s)
	return CFAPattern(i), err
}

func ParseDemosaicAlgorithm(s string) (DemosaicAlgorithm, error) {
	i, err := parseEnum("demosaic", demosaicNames, s)
	return DemosaicAlgorithm(i), err
}

func ParseReadoutDirection(s string) (ReadoutDirection, error) {
	i, err := parseEnum("direction", readoutNames, s)
	return ReadoutDirection(i), err
}

func ParseSeedPolicy(s string) (SeedPolicy, error) {
	i, err := parseEnum("seedpolicy", seedPolicyNames, s)
	return SeedPolicy(i), err
}

func ParseChannelSwap(s string) (ChannelSwap, error) {
	i, err := parseEnum("swap", swapNames, s)
	return ChannelSwap(i), err
}

func ParseGammaMode(s string) (GammaMode, error) {
	i, err := parseEnum("gamma", gammaNames, s)
	return GammaMode(i), err
}

func ParseCDSMode(s string) (CDSMode, error) {
	i, err := parseEnum("cds", cdsNames, s)
	return CDSMode(i), err
}

// ChannelAt is the color the CFA samples at site (x,y): the 2x2 tile
// repeats across the grid, anchored at (0,0).
func (p CFAPattern) ChannelAt(x, y int) Channel {
	return cfaTiles[p&3][y&1][x&1]
}

var cfaTiles = [4][2][2]Channel{
	RGGB: {{Red, Green}, {Green, Blue}},
	BGGR: {{Blue, Green}, {Green, Red}},
	GRBG: {{Green, Red}, {Blue, Green}},
	GBRG: {{Green, Blue}, {Red, Green}},
}
