package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pnm2img/contracts"
	"pnm2img/converter"
	"pnm2img/files_manager"
	"pnm2img/utils"

	"github.com/urfave/cli/v2"
)

const (
	flag8Bit         = "8bit"
	flag16Bit        = "16bit"
	flagSave         = "save"
	flagTarget       = "target"
	flagDeleteSource = "delete-source"
	flagShow         = "show"
	flagQuality      = "quality"
	flagWorkers      = "workers"
	flagThumbnail    = "thumbnail"
	flagAlbum        = "album"
	flagDPI          = "dpi"
	flagConfig       = "config"
	flagVerbose      = "verbose"
)

var errFilesFailed = errors.New("some files could not be converted")

func newApp() *cli.App {
	defaults := contracts.DefaultConfig()
	return &cli.App{
		Name:      "pnm2img",
		Usage:     "convert Netpbm images (PBM, PGM, PPM) to 8 or 16-bit PNG, JPEG, BMP, TIFF, PNM and PDF",
		ArgsUsage: "<file|dir>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flag8Bit, Aliases: []string{"8", "8-bit"}, Usage: "write 8-bit images (default)"},
			&cli.BoolFlag{Name: flag16Bit, Aliases: []string{"16", "16-bit"}, Usage: "write 16-bit images"},
			&cli.StringSliceFlag{
				Name:  flagSave,
				Usage: "output formats: png, jpg, bmp, tiff, pnm, pdf (repeat or separate with commas)",
			},
			&cli.StringFlag{
				Name:    flagTarget,
				Aliases: []string{"target-dir", "dir"},
				Usage:   "directory for output files (default: next to each source)",
			},
			&cli.BoolFlag{
				Name:    flagDeleteSource,
				Aliases: []string{"deletesource"},
				Usage:   "delete each source file once it has been fully converted",
			},
			&cli.BoolFlag{Name: flagShow, Aliases: []string{"ui", "show-ui"}, Usage: "print a summary table of the results"},
			&cli.IntFlag{Name: flagQuality, Value: defaults.JpegQuality, Usage: "JPEG quality (1-100)"},
			&cli.IntFlag{Name: flagWorkers, Value: defaults.Workers, Usage: "number of files converted at once"},
			&cli.IntFlag{Name: flagThumbnail, Usage: "also write a PNG thumbnail no larger than `N` pixels"},
			&cli.StringFlag{Name: flagAlbum, Usage: "collect every converted image into the PDF at `PATH`"},
			&cli.Float64Flag{Name: flagDPI, Value: defaults.DPI, Usage: "resolution used to size PDF pages"},
			&cli.StringFlag{Name: flagConfig, Usage: "load settings from a YAML `FILE`; flags take precedence"},
			&cli.BoolFlag{Name: flagVerbose, Aliases: []string{"v"}, Usage: "log every stage"},
		},
		Action: run,
	}
}

// loadConfig builds the run configuration: defaults, then the config file,
// then any flags given explicitly.
func loadConfig(c *cli.Context) (contracts.Config, error) {
	cfg := contracts.DefaultConfig()
	if c.IsSet(flagConfig) {
		var err error
		if cfg, err = contracts.LoadConfigFile(c.String(flagConfig), cfg); err != nil {
			return cfg, err
		}
	}

	if c.IsSet(flag8Bit) || c.IsSet(flag16Bit) {
		cfg.BitDepths = nil
		if c.Bool(flag8Bit) {
			cfg.BitDepths = append(cfg.BitDepths, 8)
		}
		if c.Bool(flag16Bit) {
			cfg.BitDepths = append(cfg.BitDepths, 16)
		}
		if len(cfg.BitDepths) == 0 {
			cfg.BitDepths = []int{8}
		}
	}
	if c.IsSet(flagSave) {
		cfg.OutputFormats = c.StringSlice(flagSave)
	}
	if c.IsSet(flagTarget) {
		cfg.TargetDir = c.String(flagTarget)
	}
	if c.IsSet(flagDeleteSource) {
		cfg.DeleteSource = c.Bool(flagDeleteSource)
	}
	if c.IsSet(flagShow) {
		cfg.ShowSummary = c.Bool(flagShow)
	}
	if c.IsSet(flagQuality) {
		cfg.JpegQuality = c.Int(flagQuality)
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagThumbnail) {
		cfg.Thumbnail = c.Int(flagThumbnail)
	}
	if c.IsSet(flagAlbum) {
		cfg.Album = c.String(flagAlbum)
	}
	if c.IsSet(flagDPI) {
		cfg.DPI = c.Float64(flagDPI)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}

	logger, err := utils.NewLogger(c.Bool(flagVerbose))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, missing, err := files_manager.ResolveInputs(c.Args().Slice())
	if err != nil {
		return err
	}
	for _, m := range missing {
		logger.Warnf("Skipping %s: no such file or directory", m)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found")
	}

	startTime := time.Now()
	logger.Infof("Converting %d file(s)...", len(files))

	report, err := converter.RunBatch(c.Context, files, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.ShowSummary {
		fmt.Fprintln(c.App.Writer, renderSummary(report))
	}
	logger.Infof("Total time taken: %s", time.Since(startTime))

	if err := report.Err(); err != nil {
		logger.Errorf("%d of %d file(s) failed", len(report.Failed()), len(report.Files))
		return fmt.Errorf("%w: %w", errFilesFailed, err)
	}
	logger.Info("Conversion completed successfully.")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR]: %v\n", err)
		os.Exit(1)
	}
}
