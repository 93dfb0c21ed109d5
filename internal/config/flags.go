package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagWidth  = flag.Int("width", 0, "Window width in logical pixels")
	flagHeight = flag.Int("height", 0, "Window height in logical pixels")
	flagScale  = flag.Float64("scale", 0, "Override the logical to device pixel ratio")
	flagFont   = flag.String("font", "", "Path to a TrueType/OpenType font")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagScale > 0 {
		cfg.Graphics.Scale = float32(*flagScale)
	}
	if *flagFont != "" {
		cfg.Font.Path = *flagFont
	}
}
