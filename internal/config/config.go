package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Link    LinkConfig   `yaml:"link"`
	Render  RenderConfig `yaml:"render"`
	Buffers BufferConfig `yaml:"buffers"`
	Mirror  MirrorConfig `yaml:"mirror"`
}

type LinkConfig struct {
	// Device may be empty; the port can also come from the -port flag.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type RenderConfig struct {
	Period time.Duration `yaml:"period"`
}

type BufferConfig struct {
	TrailCapacity int `yaml:"trail_capacity"`
	RawCapacity   int `yaml:"raw_capacity"`
}

type MirrorConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Link.Baud == 0 {
		cfg.Link.Baud = 57600
	}
	if cfg.Link.Baud < 0 {
		return Config{}, fmt.Errorf("link.baud must be positive")
	}

	if cfg.Render.Period == 0 {
		cfg.Render.Period = 50 * time.Millisecond
	}
	if cfg.Render.Period < 0 {
		return Config{}, fmt.Errorf("render.period must be positive")
	}

	if cfg.Buffers.TrailCapacity == 0 {
		cfg.Buffers.TrailCapacity = 500
	}
	if cfg.Buffers.RawCapacity == 0 {
		cfg.Buffers.RawCapacity = 200
	}
	if cfg.Buffers.TrailCapacity < 0 || cfg.Buffers.RawCapacity < 0 {
		return Config{}, fmt.Errorf("buffer capacities must be positive")
	}

	if cfg.Mirror.Enable {
		if cfg.Mirror.Dest == "" {
			return Config{}, fmt.Errorf("mirror.dest is required when mirror.enable is true")
		}
		if cfg.Mirror.Interval == 0 {
			cfg.Mirror.Interval = 1 * time.Second
		}
		if cfg.Mirror.Interval < 0 {
			return Config{}, fmt.Errorf("mirror.interval must be positive")
		}
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Link:    LinkConfig{Baud: 57600},
		Render:  RenderConfig{Period: 50 * time.Millisecond},
		Buffers: BufferConfig{TrailCapacity: 500, RawCapacity: 200},
	}
}
