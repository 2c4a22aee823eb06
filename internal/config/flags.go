package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagTolerance     = flag.Float64("tolerance", 0, "Edge-weld position tolerance")
	flagMaxIterations = flag.Int("max-iterations", 0, "Cap on path search expansions")
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
	if *flagTolerance > 0 {
		cfg.Stitch.Tolerance = float32(*flagTolerance)
	}
	if *flagMaxIterations > 0 {
		cfg.Path.MaxIterations = *flagMaxIterations
	}
}
