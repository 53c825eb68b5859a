package tools

import (
	"flag"
	"log"
)

const (
	CommandRun    = "run"
	CommandLayers = "layers"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type OverlayFlags struct {
	Input        *string `json:"input"`
	Cloud        *string `json:"cloud"`
	Step         *float64
	Density      *string
	Layers       *string
	BoundaryCrs  *string
	CloudCrs     *string
	ZMode        *string `json:"z_mode"`
	ZOffset      *float64
	Radius       *float64
	MaxNeighbors *int
	Quantile     *float64
	MaxPoints    *int `json:"max_points"`
}

type FlagsForCommandRun struct {
	OverlayFlags
	Output       *string
	Merged       *string
	Kind         *string
	Rgb          *string
	NoRgb        *bool
	LayerRgb     *string `json:"layer_rgb"`
	ScalarMode   *string `json:"scalar_mode"`
	ScalarValue  *float64
	Silent       *bool
	LogTimestamp *bool
	Help         *bool
	Version      *bool
}

type FlagsForCommandLayers struct {
	Input *string `json:"input"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of cadoverlay.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandRun(args []string) FlagsForCommandRun {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-run", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input DXF drawing with the boundary polylines.")
	cloud := defineStringFlagCommand(flagCommand, "cloud", "c", "", "Specifies the point cloud file (las or pcd) the boundary is draped onto.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output text file for the draped boundary points.")
	merged := defineStringFlagCommand(flagCommand, "merged", "m", "", "Optional output LAS file holding the original cloud plus the colored boundary points.")
	step := defineFloat64FlagCommand(flagCommand, "step", "", 1.0, "Maximum spacing in meters between consecutive boundary samples. Ignored when -density is given.")
	density := defineStringFlagCommand(flagCommand, "density", "d", "", "Sampling density preset, one of 'low', 'medium', 'high' or 'ultra'. Overrides -step.")
	layers := defineStringFlagCommand(flagCommand, "layers", "l", "", "Comma separated list of DXF layers to read. Default is all layers.")
	boundaryCrs := defineStringFlagCommand(flagCommand, "boundary-crs", "", "", "CRS of the drawing, as an EPSG code or a proj4 string.")
	cloudCrs := defineStringFlagCommand(flagCommand, "cloud-crs", "", "", "CRS of the point cloud, as an EPSG code or a proj4 string.")
	zMode := defineStringFlagCommand(flagCommand, "zmode", "", "SURFACE", "Elevation assignment mode, one of 'SURFACE', 'SURFACE-OFFSET', 'P95' or 'MEDIAN'.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 1.0, "Vertical offset in meters added to the assigned elevations.")
	radius := defineFloat64FlagCommand(flagCommand, "radius", "r", 2.0, "Horizontal search radius in meters for the elevation neighbor query.")
	maxNeighbors := defineIntFlagCommand(flagCommand, "k", "", 64, "Maximum number of nearest neighbors used per sample.")
	quantile := defineFloat64FlagCommand(flagCommand, "quantile", "q", 0.10, "Elevation quantile taken over the neighbors, in [0,1].")
	maxPoints := defineIntFlagCommand(flagCommand, "max-points", "", 2000000, "Maximum number of cloud points kept for the neighbor index. 0 disables the cap.")
	kind := defineStringFlagCommand(flagCommand, "kind", "", "XYZ-RGB", "Output flavor, one of 'XYZ', 'XYZ-ID', 'XYZ-SF' or 'XYZ-RGB'.")
	rgb := defineStringFlagCommand(flagCommand, "rgb", "", "255,0,0", "Boundary color as 'R,G,B' with 8 bit channels.")
	noRgb := defineBoolFlagCommand(flagCommand, "no-rgb", "", false, "Write plain XYZ output without color columns.")
	layerRgb := defineStringFlagCommand(flagCommand, "layer-rgb", "", "", "Per layer colors as 'layer=R,G,B;layer=R,G,B'. Layers not listed use the -rgb color.")
	scalarMode := defineStringFlagCommand(flagCommand, "sf-mode", "", "CONST", "Scalar field for 'XYZ-SF' output, one of 'CONST' or 'POLYLINE-ID'.")
	scalarValue := defineFloat64FlagCommand(flagCommand, "sf-value", "", 0, "Constant scalar value for the 'CONST' scalar mode.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of cadoverlay.")

	flagCommand.Parse(args)

	return FlagsForCommandRun{
		OverlayFlags: OverlayFlags{
			Input:        input,
			Cloud:        cloud,
			Step:         step,
			Density:      density,
			Layers:       layers,
			BoundaryCrs:  boundaryCrs,
			CloudCrs:     cloudCrs,
			ZMode:        zMode,
			ZOffset:      zOffset,
			Radius:       radius,
			MaxNeighbors: maxNeighbors,
			Quantile:     quantile,
			MaxPoints:    maxPoints,
		},
		Output:       output,
		Merged:       merged,
		Kind:         kind,
		Rgb:          rgb,
		NoRgb:        noRgb,
		LayerRgb:     layerRgb,
		ScalarMode:   scalarMode,
		ScalarValue:  scalarValue,
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
		Version:      version,
	}
}

func ParseFlagsForCommandLayers(args []string) FlagsForCommandLayers {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-layers", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input DXF drawing.")

	flagCommand.Parse(args)

	return FlagsForCommandLayers{
		Input: input,
	}
}

func defineStringFlag(name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flag.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
