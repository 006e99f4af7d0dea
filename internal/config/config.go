// Package config handles hmptool configuration loading and management.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config holds all hmptool settings.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Export  ExportConfig  `yaml:"export"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecodeConfig holds settings passed to the HMP decoder.
type DecodeConfig struct {
	Palette string `yaml:"palette"` // colormap.lmp for 8-bit skins, empty for grayscale
	Charset string `yaml:"charset"` // code page of external texture names
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Format        string `yaml:"format"`         // glb or gltf
	TextureFormat string `yaml:"texture_format"` // png or webp
	YUp           bool   `yaml:"y_up"`           // rotate Z-up terrain to glTF's Y-up
	TextureDir    string `yaml:"texture_dir"`    // where external skin files are looked up
}

// BatchConfig holds directory conversion settings.
type BatchConfig struct {
	Workers   int    `yaml:"workers"`
	Pattern   string `yaml:"pattern"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			Palette: "",
			Charset: "windows-1252",
		},
		Export: ExportConfig{
			Format:        "glb",
			TextureFormat: "png",
			YUp:           true,
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
			Pattern: "*.hmp",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Export.Format) {
	case "glb", "gltf":
	default:
		return fmt.Errorf("export.format must be glb or gltf, got %q", c.Export.Format)
	}
	switch strings.ToLower(c.Export.TextureFormat) {
	case "png", "webp":
	default:
		return fmt.Errorf("export.texture_format must be png or webp, got %q", c.Export.TextureFormat)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}
