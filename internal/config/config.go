// Package config loads settings from a TOML file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"LocalSketch/internal/flags"
)

const DefaultPath = "localsketch.toml"

// Duration is a time.Duration written as "15s" in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type Config struct {
	Canvas Canvas `toml:"canvas"`
	Flags  Flags  `toml:"flags"`
	Export Export `toml:"export"`
	Live   Live   `toml:"live"`
	Log    Log    `toml:"log"`

	// Discover browses for live views instead of starting the app.
	Discover bool `toml:"-"`
}

type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type Flags struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

type Export struct {
	Dir string `toml:"dir"`
}

type Live struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() Config {
	return Config{
		Canvas: Canvas{Width: 1024, Height: 680},
		Flags:  Flags{URL: flags.DefaultURL, Timeout: Duration(flags.DefaultTimeout)},
		Export: Export{Dir: "."},
		Live:   Live{Port: 8888},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Parse builds the configuration from defaults, then the TOML file named by
// --config, then any flags given explicitly. A missing default file is not
// an error.
func Parse(args []string) (Config, error) {
	cfg := Default()

	fset := pflag.NewFlagSet("localsketch", pflag.ContinueOnError)
	path := fset.String("config", DefaultPath, "TOML configuration file")
	width := fset.Int("width", cfg.Canvas.Width, "canvas width")
	height := fset.Int("height", cfg.Canvas.Height, "canvas height")
	flagsURL := fset.String("flags-url", cfg.Flags.URL, "country directory URL")
	flagsTimeout := fset.Duration("flags-timeout", time.Duration(cfg.Flags.Timeout), "country directory request timeout")
	exportDir := fset.String("export-dir", cfg.Export.Dir, "directory for quick exports")
	live := fset.Bool("live", cfg.Live.Enabled, "share a read-only live view on the LAN")
	livePort := fset.Int("live-port", cfg.Live.Port, "live view HTTP port")
	logLevel := fset.String("log-level", cfg.Log.Level, "debug, info, warn or error")
	logFormat := fset.String("log-format", cfg.Log.Format, "text or json")
	discover := fset.Bool("discover", false, "list live views on the network and exit")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	if err := loadFile(&cfg, *path, fset.Changed("config")); err != nil {
		return cfg, err
	}

	if fset.Changed("width") {
		cfg.Canvas.Width = *width
	}
	if fset.Changed("height") {
		cfg.Canvas.Height = *height
	}
	if fset.Changed("flags-url") {
		cfg.Flags.URL = *flagsURL
	}
	if fset.Changed("flags-timeout") {
		cfg.Flags.Timeout = Duration(*flagsTimeout)
	}
	if fset.Changed("export-dir") {
		cfg.Export.Dir = *exportDir
	}
	if fset.Changed("live") {
		cfg.Live.Enabled = *live
	}
	if fset.Changed("live-port") {
		cfg.Live.Port = *livePort
	}
	if fset.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if fset.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}
	cfg.Discover = *discover

	return cfg, cfg.Validate()
}

func loadFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("config: canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Live.Port <= 0 || c.Live.Port > 65535 {
		return fmt.Errorf("config: live port %d out of range", c.Live.Port)
	}
	if c.Flags.Timeout <= 0 {
		return fmt.Errorf("config: flags timeout must be positive")
	}
	return nil
}
