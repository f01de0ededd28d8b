package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"snapmeta/internal/app"
	"snapmeta/internal/config"
	"snapmeta/internal/logger"
	"snapmeta/internal/metadata"
	"snapmeta/internal/pipeline"
)

type inspectOptions struct {
	Transform string
	Out       string
	Format    string
}

// inspectReport is what inspect prints for one file.
type inspectReport struct {
	File      string          `json:"file"`
	Kind      metadata.Kind   `json:"kind"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Transform string          `json:"transform"`
	Metadata  metadata.Record `json:"metadata"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Run one image file through the pipeline and print its metadata",
	Long: `Decodes the file, extracts its EXIF tags (or provenance when it has none),
applies the transform and optionally writes the processed image.

Examples:
  snapmeta inspect photo.jpg
  snapmeta inspect photo.jpg --format yaml
  snapmeta inspect photo.jpg --transform none --out copy.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts inspectOptions
		opts.Transform, _ = cmd.Flags().GetString("transform")
		opts.Out, _ = cmd.Flags().GetString("out")
		opts.Format, _ = cmd.Flags().GetString("format")
		return runInspect(cmd.Context(), loadConfig(), args[0], opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("transform", "t", "", "transform chain, e.g. grayscale or none (default from TRANSFORM)")
	inspectCmd.Flags().StringP("out", "o", "", "write the processed image here; .png selects PNG, anything else JPEG")
	inspectCmd.Flags().StringP("format", "f", "json", "report format: json or yaml")
}

func runInspect(ctx context.Context, cfg *config.Config, path string, opts inspectOptions, w io.Writer) error {
	if opts.Format != "json" && opts.Format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	if opts.Transform != "" {
		cfg.Transform = opts.Transform
	}
	if opts.Out != "" {
		cfg.EncodeFormat = "jpeg"
		if strings.EqualFold(filepath.Ext(opts.Out), ".png") {
			cfg.EncodeFormat = "png"
		}
	}

	processor, err := app.NewProcessor(cfg, nil, logger.NewNopLogger())
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ev := processor.Process(ctx, pipeline.FileInput{Reader: f, MIME: mime.TypeByExtension(filepath.Ext(path))})
	if err := ev.Err(); err != nil {
		return err
	}
	res := ev.Result()

	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, res.Image.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.Out, err)
		}
	}

	report := inspectReport{
		File:      filepath.Base(path),
		Kind:      res.Metadata.Kind(),
		Width:     res.Width,
		Height:    res.Height,
		Transform: res.Transform,
		Metadata:  res.Metadata,
	}
	if opts.Format == "yaml" {
		return writeYAML(w, report)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeYAML keeps the metadata fields in display order, which a plain map would lose.
func writeYAML(w io.Writer, r inspectReport) error {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range r.Metadata.Fields() {
		var val yaml.Node
		if err := val.Encode(f.Value.Native()); err != nil {
			return err
		}
		fields.Content = append(fields.Content, scalar(f.Key), &val)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("file"), scalar(r.File),
		scalar("kind"), scalar(string(r.Kind)),
		scalar("width"), intScalar(r.Width),
		scalar("height"), intScalar(r.Height),
		scalar("transform"), scalar(r.Transform),
		scalar("metadata"), fields,
	}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intScalar(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)}
}
