// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command nv12conv converts raw NV12 frames to an image file.
//
// The frames are drawn with the software context through the same
// compositor a host application uses, so the output shows exactly what
// the conversion pass produces.
//
//	nv12conv -W 1280 -H 720 -i frame.nv12 -o frame.png
package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gogpu/nv12"
	"github.com/gogpu/nv12/gfx/soft"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:      "nv12conv",
		Usage:     "convert raw NV12 frames to PNG, BMP or TIFF",
		UsageText: "nv12conv --width W --height H --input FILE [--output FILE]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "raw NV12 input file", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output image (default: input name with the format extension)"},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: "frame width in pixels"},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: "frame height in pixels"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: png, bmp or tiff"},
			&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Usage: "number of frames to submit"},
			&cli.StringFlag{Name: "sampler", Usage: "plane filtering: linear or point"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "log debug output"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "nv12conv:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	nv12.SetLogger(logger)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input := c.String("input")
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	output := outputPath(input, c.String("output"), cfg.Format)

	img, err := convert(data, cfg)
	if err != nil {
		return fmt.Errorf("convert %s: %w", input, err)
	}

	encode, err := encoderFor(cfg.Format)
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("nv12conv: wrote image",
		slog.String("output", output),
		slog.Int("width", cfg.Width),
		slog.Int("height", cfg.Height),
		slog.Int("frames", cfg.Frames))
	return nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (Config, error) {
	cfg := Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("frames") {
		cfg.Frames = c.Int("frames")
	}
	if c.IsSet("sampler") {
		cfg.Sampler = c.String("sampler")
	}
	return cfg, nil
}

// convert submits cfg.Frames frames from data and returns the last
// composited image. data must hold a whole number of frames.
func convert(data []byte, cfg Config) (*image.RGBA, error) {
	frameSize := nv12.FrameSize(cfg.Width, cfg.Height)
	if len(data) == 0 || len(data)%frameSize != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %dx%d frames (%d bytes each)",
			len(data), cfg.Width, cfg.Height, frameSize)
	}
	sampler, err := cfg.SamplerState()
	if err != nil {
		return nil, err
	}

	ctx := soft.New()
	target, err := ctx.CreateRenderTarget(soft.RenderTargetDescriptor{Width: cfg.Width, Height: cfg.Height})
	if err != nil {
		return nil, err
	}

	comp, err := nv12.New(ctx, target, nv12.WithSampler(sampler), nv12.WithLabel(cfg.Label))
	if err != nil {
		return nil, err
	}
	defer func() { _ = comp.Close() }()

	count := len(data) / frameSize
	for i := 0; i < cfg.Frames; i++ {
		off := (i % count) * frameSize
		if err := comp.SubmitFrame(data[off:off+frameSize], cfg.Width, cfg.Height); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return target.Image(), nil
}
