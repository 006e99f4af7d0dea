// hmptool inspects and converts 3D GameStudio HMP terrain files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/hmp-terrain/internal/assets"
	"github.com/Faultbox/hmp-terrain/internal/batch"
	"github.com/Faultbox/hmp-terrain/internal/config"
	"github.com/Faultbox/hmp-terrain/internal/export"
	"github.com/Faultbox/hmp-terrain/internal/logger"
	"github.com/Faultbox/hmp-terrain/internal/terrain"
	"github.com/Faultbox/hmp-terrain/pkg/encoding"
	"github.com/Faultbox/hmp-terrain/pkg/formats"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "sniff":
		err = cmdSniff(args)
	case "info":
		err = cmdInfo(cfg, args)
	case "convert", "c":
		err = cmdConvert(cfg, args)
	case "textures", "tex":
		err = cmdTextures(cfg, args)
	case "batch":
		err = cmdBatch(cfg, args)
	case "height":
		err = cmdHeight(cfg, args)
	case "init-config":
		err = cmdInitConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hmptool - 3D GameStudio HMP terrain utility

Usage:
  hmptool [global options] <command> [options]

Commands:
  sniff <file>...                    Report which files are HMP terrains
  info <file.hmp>                    Show header and decoded terrain summary
  convert <file.hmp> [output]        Convert to glTF (.glb or .gltf)
  textures <file.hmp> [dir]          Extract embedded skin textures
  batch <dir> [output dir]           Convert every matching file under dir
  height <file.hmp> <x> <y>          Sample the terrain altitude at a position
  init-config [path]                 Write the current settings as YAML

Global options:
  -config <path>     Config file (default: ./hmptool.yaml or user config dir)
  -format glb|gltf   Export format
  -textures png|webp Texture image format
  -palette <path>    colormap.lmp for 8-bit skins
  -charset <name>    Code page of texture file names
  -workers <n>       Batch worker count
  -z-up              Keep the terrain's Z-up orientation
  -debug             Debug logging
  -log <path>        Also write logs to a rotating file

Examples:
  hmptool info level1.hmp
  hmptool -format gltf convert level1.hmp out/level1.gltf
  hmptool -textures webp textures level1.hmp skins/
  hmptool -workers 8 batch ./levels ./converted`)
}

// decodeOptions builds decoder options from the config.
func decodeOptions(cfg *config.Config) ([]formats.Option, error) {
	opts := []formats.Option{formats.WithLogger(logger.Named("hmp"))}

	if cfg.Decode.Palette != "" {
		pal, err := formats.ParsePaletteFile(cfg.Decode.Palette)
		if err != nil {
			return nil, fmt.Errorf("loading palette: %w", err)
		}
		opts = append(opts, formats.WithPalette(pal))
	}

	enc, err := encoding.Lookup(cfg.Decode.Charset)
	if err != nil {
		return nil, err
	}
	opts = append(opts, formats.WithNameDecoder(encoding.NameDecoder(enc)))
	return opts, nil
}

func gltfOptions(cfg *config.Config) export.GLTFOptions {
	return export.GLTFOptions{
		Binary:     strings.EqualFold(cfg.Export.Format, "glb"),
		YUp:        cfg.Export.YUp,
		TextureDir: cfg.Export.TextureDir,
		Log:        logger.Named("export"),
	}
}

func cmdSniff(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hmptool sniff <file>...")
	}

	for _, path := range args {
		v, ok, err := formats.SniffHMPFile(path)
		switch {
		case err != nil:
			fmt.Printf("%s: %v\n", path, err)
		case !ok:
			fmt.Printf("%s: not an HMP file\n", path)
		default:
			fmt.Printf("%s: %s (%s)\n", path, v, v.Description())
		}
	}
	return nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hmptool info <file.hmp>")
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	h, variant, err := formats.ParseHMPHeader(data)
	if err != nil {
		return err
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Variant:   %s (%s)\n", variant, variant.Description())
	fmt.Printf("Size:      %d bytes\n", len(data))
	fmt.Printf("Grid:      %d x %d vertices, %d faces\n", h.Width(), h.Height(), h.FaceCount())
	fmt.Printf("Quad size: %g x %g\n", h.TriSizeX, h.TriSizeY)
	fmt.Printf("Skins:     %d (%d x %d)\n", h.NumSkins, h.SkinWidth, h.SkinHeight)
	fmt.Printf("Frames:    %d\n", h.NumFrames)

	opts, err := decodeOptions(cfg)
	if err != nil {
		return err
	}
	sc, err := formats.ParseHMP(data, opts...)
	if err != nil {
		return err
	}

	fmt.Println()
	for i, m := range sc.Meshes {
		lo, hi := m.AltitudeRange()
		fmt.Printf("Mesh %d:    %d vertices, %d faces, altitude %.2f..%.2f, uv=%v\n",
			i, len(m.Vertices), len(m.Faces), lo, hi, m.HasTexCoords())
	}
	for i, mat := range sc.Materials {
		tex := mat.DiffuseTexture
		if tex == "" {
			tex = "(none)"
		}
		fmt.Printf("Material %d: %s, shading %s, texture %s\n", i, mat.Name, mat.Shading, tex)
	}
	for i, tex := range sc.Textures {
		if tex.Compressed() {
			fmt.Printf("Texture %d: %s, %d bytes\n", i, tex.FormatHint, len(tex.Data))
			continue
		}
		b := tex.Image.Bounds()
		fmt.Printf("Texture %d: %d x %d\n", i, b.Dx(), b.Dy())
	}
	return nil
}

func cmdConvert(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hmptool convert <file.hmp> [output]")
	}
	input := args[0]

	output := ""
	if len(args) > 1 {
		output = args[1]
	} else {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + strings.ToLower(cfg.Export.Format)
	}

	opts, err := decodeOptions(cfg)
	if err != nil {
		return err
	}
	sc, err := formats.ParseHMPFile(input, opts...)
	if err != nil {
		return err
	}

	gopts := gltfOptions(cfg)
	textures := assets.NewManager(filepath.Dir(input), cfg.Export.TextureDir)
	defer textures.Close()
	gopts.Textures = textures
	if err := export.SaveGLTF(output, sc, gopts); err != nil {
		return err
	}

	logger.Info("converted", zap.String("input", input), zap.String("output", output))
	fmt.Printf("%s -> %s\n", input, output)
	return nil
}

func cmdTextures(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: hmptool textures <file.hmp> [dir]")
	}
	input := args[0]
	outDir := filepath.Dir(input)
	if len(args) > 1 {
		outDir = args[1]
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	opts, err := decodeOptions(cfg)
	if err != nil {
		return err
	}
	sc, err := formats.ParseHMPFile(input, opts...)
	if err != nil {
		return err
	}
	if len(sc.Textures) == 0 {
		fmt.Println("No embedded textures")
		return nil
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	for i, tex := range sc.Textures {
		path := filepath.Join(outDir, fmt.Sprintf("%s_skin%d", base, i))
		if !tex.Compressed() {
			path += "." + strings.ToLower(cfg.Export.TextureFormat)
		}
		written, err := export.SaveTexture(path, tex)
		if err != nil {
			return err
		}
		fmt.Printf("Extracted: %s\n", written)
	}
	return nil
}

func cmdBatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	pattern := fs.String("pattern", cfg.Batch.Pattern, "File name pattern")
	manifest := fs.String("manifest", "", "Write a JSON manifest of the run to this path")
	withTextures := fs.Bool("extract-textures", false, "Also extract embedded skins")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: hmptool batch [options] <dir> [output dir]")
	}
	outDir := cfg.Batch.OutputDir
	if fs.NArg() > 1 {
		outDir = fs.Arg(1)
	}

	files, err := batch.FindFiles(fs.Arg(0), *pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No files matching %s in %s\n", *pattern, fs.Arg(0))
		return nil
	}

	opts, err := decodeOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Converting %d files with %d workers\n", len(files), cfg.Batch.Workers)
	results := batch.Run(ctx, batch.Config{
		Workers:         cfg.Batch.Workers,
		OutputDir:       outDir,
		Format:          cfg.Export.Format,
		TextureFormat:   cfg.Export.TextureFormat,
		ExtractTextures: *withTextures,
		GLTF:            gltfOptions(cfg),
		Decode:          opts,
		Log:             logger.Named("batch"),
		Progress: func(done, total int) {
			if done%50 == 0 || done == total {
				fmt.Printf("  [%d/%d]\n", done, total)
			}
		},
	}, files)

	for _, r := range results {
		if !r.Success() {
			fmt.Printf("FAILED %s: %v\n", r.Input, r.Err)
		}
	}
	sum := batch.Summarize(results)
	fmt.Printf("Done: %d converted, %d failed, %d faces\n", sum.Converted, sum.Failed, sum.Faces)

	if *manifest != "" {
		if err := batch.WriteManifest(*manifest, results); err != nil {
			return err
		}
		fmt.Printf("Manifest: %s\n", *manifest)
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.Failed, sum.Total)
	}
	return nil
}

func cmdHeight(cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: hmptool height <file.hmp> <x> <y>")
	}
	x, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[2], 32)
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}

	opts, err := decodeOptions(cfg)
	if err != nil {
		return err
	}
	sc, err := formats.ParseHMPFile(args[0], opts...)
	if err != nil {
		return err
	}
	hm, err := terrain.BuildHeightmap(sc.Meshes[0])
	if err != nil {
		return err
	}

	wx, wy := float32(x), float32(y)
	fmt.Printf("%.4f\n", hm.HeightAt(wx, wy))
	if !hm.Contains(wx, wy) {
		logger.Warn("position outside the terrain, clamped to its edge",
			zap.Float32("x", wx), zap.Float32("y", wy))
	}
	return nil
}

func cmdInitConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}
	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
