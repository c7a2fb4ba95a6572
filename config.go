package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"gopkg.in/Sirupsen/logrus.v0"
)

// Config is the nuxbus configuration file.
type Config struct {
	Screen  ScreenConfig  `toml:"screen"`
	Devices DevicesConfig `toml:"devices"`
	Log     LogConfig     `toml:"log"`
}

type ScreenConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Scale  int `toml:"scale"`
}

// DevicesConfig selects which peripherals are connected to the bus.
type DevicesConfig struct {
	Console bool `toml:"console"`
	Screen  bool `toml:"screen"`
	Clock   bool `toml:"clock"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

const cfgFilename = "config.toml"

func defaultConfig() Config {
	return Config{
		Screen:  ScreenConfig{Width: 0x200, Height: 0x140, Scale: 1},
		Devices: DevicesConfig{Console: true, Screen: true, Clock: true},
		Log:     LogConfig{Level: "warn"},
	}
}

// loadConfig reads the named configuration file over the defaults.
// If name is empty the user configuration directory is tried, and a
// missing file there is not an error.
func loadConfig(name string) (Config, error) {
	cfg := defaultConfig()
	if name == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, nil
		}
		name = filepath.Join(dir, "nuxbus", cfgFilename)
		if _, err := os.Stat(name); err != nil {
			return cfg, nil
		}
	}
	if _, err := toml.DecodeFile(name, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", name)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	s := c.Screen
	if s.Width <= 0 || s.Width > 0xffff || s.Height <= 0 || s.Height > 0xffff {
		return errors.Errorf("config: invalid screen size %dx%d", s.Width, s.Height)
	}
	if s.Scale < 1 {
		return errors.Errorf("config: invalid screen scale %d", s.Scale)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}

// newLogger returns the diagnostics logger described by c.
func newLogger(c LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = level
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	return l, nil
}
