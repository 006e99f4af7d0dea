package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile  = flag.String("log", "", "Also write logs to this file")
	flagFormat   = flag.String("format", "", "Export format: glb or gltf")
	flagTextures = flag.String("textures", "", "Texture image format: png or webp")
	flagWorkers  = flag.Int("workers", 0, "Batch worker count")
	flagPalette  = flag.String("palette", "", "Path to colormap.lmp for 8-bit skins")
	flagCharset  = flag.String("charset", "", "Code page of texture file names")
	flagZUp      = flag.Bool("z-up", false, "Keep the Z-up orientation of the terrain")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the subcommand and its operands.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagFormat != "" {
		cfg.Export.Format = *flagFormat
	}
	if *flagTextures != "" {
		cfg.Export.TextureFormat = *flagTextures
	}
	if *flagWorkers > 0 {
		cfg.Batch.Workers = *flagWorkers
	}
	if *flagPalette != "" {
		cfg.Decode.Palette = *flagPalette
	}
	if *flagCharset != "" {
		cfg.Decode.Charset = *flagCharset
	}
	if *flagZUp {
		cfg.Export.YUp = false
	}
}
