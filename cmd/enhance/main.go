package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/wbrown/imgenhance"
	"github.com/wbrown/imgenhance/imageutil"
	"github.com/wbrown/imgenhance/internal/config"
)

var version = "dev" // Injected at build time via ldflags

var log = commonlog.GetLogger("enhance")

type options struct {
	input     string
	output    string
	config    string
	clipLimit float64
	tileGrid  string
	workers   int
	maxSize   int
	interp    string
	verbose   int
}

// newRootCmd builds the command tree. The returned options are filled in
// when the command's flags are parsed.
func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Boost local contrast of an image with CLAHE on its lightness channel",
		Long: "enhance converts an image to CIE Lab, applies contrast-limited adaptive\n" +
			"histogram equalization to the L channel and writes the result. Colors\n" +
			"keep their hue; only lightness is redistributed.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnhance(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "path to the input image (required)")
	flags.StringVarP(&opts.output, "output", "o", "", "path to save the result; format follows the extension")
	flags.StringVarP(&opts.config, "config", "c", "", "parameter file (.yaml, .toml or .json)")
	flags.Float64Var(&opts.clipLimit, "clip-limit", imgenhance.DefaultClipLimit, "histogram clip limit (> 0)")
	flags.StringVar(&opts.tileGrid, "tile-grid", "8x8", "tile columns x rows, e.g. 8x8")
	flags.IntVar(&opts.workers, "workers", 0, "goroutines per image, 0 for GOMAXPROCS")
	flags.IntVar(&opts.maxSize, "max-size", 0, "downscale so neither side exceeds this many pixels, 0 to keep the size")
	flags.StringVar(&opts.interp, "interpolation", "area", "downscale kernel: area, linear or nearest")
	cmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return cmd, opts
}

func runEnhance(cmd *cobra.Command, opts *options) error {
	commonlog.Configure(1+opts.verbose, nil)

	enhancer, err := buildEnhancer(cmd, opts)
	if err != nil {
		return err
	}
	interp, err := imageutil.ParseInterpolation(opts.interp)
	if err != nil {
		return err
	}
	log.Debugf("clip limit %v, tile grid %dx%d, workers %d",
		enhancer.ClipLimit, enhancer.TileGrid.X, enhancer.TileGrid.Y, enhancer.Workers)

	start := time.Now()
	img, err := imageutil.LoadImage(opts.input)
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}
	log.Infof("loaded %s (%dx%d) in %v", opts.input, img.Width(), img.Height(), time.Since(start))

	if opts.maxSize > 0 {
		img = imageutil.FitWithin(img, opts.maxSize, interp)
		log.Debugf("working size %dx%d", img.Width(), img.Height())
	}

	start = time.Now()
	out, err := enhancer.EnhanceContrast(img)
	if err != nil {
		return fmt.Errorf("enhancing: %w", err)
	}
	log.Infof("enhanced in %v", time.Since(start))

	start = time.Now()
	if err := imageutil.SaveImage(out, opts.output); err != nil {
		return fmt.Errorf("saving image: %w", err)
	}
	log.Infof("saved %s in %v", opts.output, time.Since(start))

	fmt.Fprintf(cmd.OutOrStdout(), "Output written to %s\n", opts.output)
	return nil
}

// buildEnhancer applies defaults, then the config file, then any flag the
// user set explicitly.
func buildEnhancer(cmd *cobra.Command, opts *options) (*imgenhance.Enhancer, error) {
	params, err := config.Load(opts.config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	enhancerOpts := params.Options()

	flags := cmd.Flags()
	if flags.Changed("clip-limit") {
		enhancerOpts = append(enhancerOpts, imgenhance.WithClipLimit(opts.clipLimit))
	}
	if flags.Changed("tile-grid") {
		grid, err := config.ParseGrid(opts.tileGrid)
		if err != nil {
			return nil, err
		}
		enhancerOpts = append(enhancerOpts, imgenhance.WithTileGrid(grid[0], grid[1]))
	}
	if flags.Changed("workers") {
		enhancerOpts = append(enhancerOpts, imgenhance.WithWorkers(opts.workers))
	}

	enhancer := imgenhance.NewEnhancer(enhancerOpts...)
	if err := enhancer.Validate(); err != nil {
		return nil, err
	}
	return enhancer, nil
}

// run executes cmd and reports a failure once on stderr. It returns the
// process exit status.
func run(cmd *cobra.Command, stderr io.Writer) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	cmd, _ := newRootCmd()
	os.Exit(run(cmd, os.Stderr))
}
