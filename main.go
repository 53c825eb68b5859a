package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/lidarmap/cadoverlay/internal/boundary"
	"github.com/lidarmap/cadoverlay/internal/converters"
	"github.com/lidarmap/cadoverlay/internal/overlay"
	"github.com/lidarmap/cadoverlay/pkg"
	"github.com/lidarmap/cadoverlay/tools"
)

const VERSION = "1.0.2"

const logo = `
                _                      _
  ___ __ _  __| | _____   _____ _ __ | | __ _ _   _
 / __/ _  |/ _  |/ _ \ \ / / _ \ '__|| |/ _  | | | |
| (_| (_| | (_| | (_) \ V /  __/ |   | | (_| | |_| |
 \___\__,_|\__,_|\___/ \_/ \___|_|   |_|\__,_|\__, |
        CAD boundary to point cloud overlay   |___/
`

// densityPresets maps the coarse density flag to a densification step in
// meters.
var densityPresets = map[string]float64{
	"low":    2.0,
	"medium": 1.0,
	"high":   0.5,
	"ultra":  0.2,
}

func main() {
	log.SetPrefix("[cadoverlay] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	args := flag.Args()
	if len(args) == 0 {
		if *flagsGlobal.Version {
			printVersion()
			return
		}
		if *flagsGlobal.Help {
			showHelp()
			return
		}
		log.Fatal("Please specify a subcommand [run|layers].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandRun:
		mainCommandRun(args)
	case tools.CommandLayers:
		mainCommandLayers(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [run|layers]", cmd)
	}
}

func mainCommandRun(args []string) {
	// Retrieve command line args
	flags := tools.ParseFlagsForCommandRun(args)

	// Prints the command line flag description
	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	// Put args inside an overlay.Options struct
	opts, msg := optionsForCommandRun(&flags)
	if msg != "" {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	// Fail fast on unreadable inputs before any work starts
	tools.OpenFileOrFail(opts.BoundaryPath).Close()
	tools.OpenFileOrFail(opts.CloudPath).Close()

	// Cancel the run on SIGINT/SIGTERM so no partial output is kept
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts.Progress = func(percent int, label string) {
		tools.LogOutput(fmt.Sprintf("[%3d%%] %s", percent, label))
	}

	converter := converters.NewProj4Converter()
	defer converter.Cleanup()

	err := pkg.NewPipeline(boundary.NewDXFExtractor(), converter).Run(ctx, opts)

	if err != nil {
		log.Fatal("Error while running the overlay: ", err)
	} else {
		tools.LogOutput("Conversion Completed")
	}
}

// optionsForCommandRun maps and validates the command line flags into an
// overlay.Options. A non-empty second return value is the error message.
func optionsForCommandRun(flags *tools.FlagsForCommandRun) (*overlay.Options, string) {
	opts := &overlay.Options{
		BoundaryPath:     *flags.Input,
		CloudPath:        *flags.Cloud,
		OutputPath:       *flags.Output,
		MergedOutputPath: *flags.Merged,
		Step:             *flags.Step,
		BoundaryCRS:      *flags.BoundaryCrs,
		CloudCRS:         *flags.CloudCrs,
		ZOffset:          *flags.ZOffset,
		Radius:           *flags.Radius,
		MaxNeighbors:     *flags.MaxNeighbors,
		Quantile:         *flags.Quantile,
		MaxCloudPoints:   *flags.MaxPoints,
		ScalarValue:      *flags.ScalarValue,
	}

	if opts.BoundaryPath == "" {
		return nil, "input DXF file not specified"
	}
	if _, err := os.Stat(opts.BoundaryPath); os.IsNotExist(err) {
		return nil, "input DXF file not found"
	}
	if opts.CloudPath == "" {
		return nil, "cloud file not specified"
	}
	if _, err := os.Stat(opts.CloudPath); os.IsNotExist(err) {
		return nil, "cloud file not found"
	}
	if opts.OutputPath == "" && opts.MergedOutputPath == "" {
		return nil, "at least one of -output and -merged must be specified"
	}

	if *flags.Density != "" {
		step, ok := densityPresets[strings.ToLower(strings.TrimSpace(*flags.Density))]
		if !ok {
			return nil, "density must be one of 'low', 'medium', 'high' or 'ultra'"
		}
		opts.Step = step
	}

	if *flags.Layers != "" {
		for _, layer := range strings.Split(*flags.Layers, ",") {
			if layer = strings.TrimSpace(layer); layer != "" {
				opts.Layers = append(opts.Layers, layer)
			}
		}
	}

	if opts.ZMode = overlay.ParseZMode(*flags.ZMode); opts.ZMode == "" {
		return nil, "zmode must be one of 'SURFACE', 'SURFACE-OFFSET', 'P95' or 'MEDIAN'"
	}
	if opts.OutputKind = overlay.ParseOutputKind(*flags.Kind); opts.OutputKind == "" {
		return nil, "kind must be one of 'XYZ', 'XYZ-ID', 'XYZ-SF' or 'XYZ-RGB'"
	}
	if *flags.NoRgb && opts.OutputKind == overlay.OutputXYZRGB {
		opts.OutputKind = overlay.OutputXYZ
	}
	if opts.ScalarMode = overlay.ParseScalarMode(*flags.ScalarMode); opts.ScalarMode == "" {
		return nil, "sf-mode must be one of 'CONST' or 'POLYLINE-ID'"
	}

	base, err := parseRGB(*flags.Rgb)
	if err != nil {
		return nil, "rgb: " + err.Error()
	}
	if *flags.LayerRgb != "" {
		perLayer, err := parseLayerRGB(*flags.LayerRgb)
		if err != nil {
			return nil, "layer-rgb: " + err.Error()
		}
		opts.Color = overlay.PerLayerColor{Colors: perLayer, Default: base}
	} else {
		opts.Color = overlay.UniformColor{Color: base}
	}

	return opts, ""
}

// parseRGB parses "R,G,B" with 8 bit channels, clamping out of range values.
func parseRGB(value string) (overlay.RGB, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return overlay.RGB{}, fmt.Errorf("expected 'R,G,B', got %q", value)
	}
	var channels [3]uint8
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return overlay.RGB{}, fmt.Errorf("invalid channel %q", part)
		}
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		channels[i] = uint8(n)
	}
	return overlay.RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

// parseLayerRGB parses "layer=R,G,B;layer=R,G,B".
func parseLayerRGB(value string) (map[string]overlay.RGB, error) {
	colors := make(map[string]overlay.RGB)
	for _, entry := range strings.Split(value, ";") {
		if entry = strings.TrimSpace(entry); entry == "" {
			continue
		}
		layer, rgb, found := strings.Cut(entry, "=")
		if !found || strings.TrimSpace(layer) == "" {
			return nil, fmt.Errorf("expected 'layer=R,G,B', got %q", entry)
		}
		color, err := parseRGB(rgb)
		if err != nil {
			return nil, err
		}
		colors[strings.TrimSpace(layer)] = color
	}
	return colors, nil
}

func mainCommandLayers(args []string) {
	flags := tools.ParseFlagsForCommandLayers(args)

	if *flags.Input == "" {
		log.Fatal("Error parsing input parameters: input DXF file not specified")
	}
	if _, err := os.Stat(*flags.Input); os.IsNotExist(err) {
		log.Fatal("Error parsing input parameters: input DXF file not found")
	}

	layers, err := boundary.NewDXFExtractor().ListLayers(*flags.Input)
	if err != nil {
		log.Fatal("Error reading layers: ", err)
	}
	for _, layer := range layers {
		fmt.Println(layer)
	}
}

func printLogo() {
	fmt.Print(logo, "\n")
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("cadoverlay drapes CAD boundary polylines onto a LiDAR point cloud and exports the colored result.")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
