package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Port       string `yaml:"port"`         // spireg name, "" picks the first port
	SpeedHz    int    `yaml:"speed_hz"`     // apa102 clock, e.g. 16000000
	NRZSpeedHz int    `yaml:"nrz_speed_hz"` // nrz bit rate x3, e.g. 2500000
	Mode       int    `yaml:"mode"`         // 0..3
	LSBFirst   bool   `yaml:"lsb_first"`
}

type Strip struct {
	Driver     string `yaml:"driver"` // "apa102" | "nrz" | "console"
	NumPixels  int    `yaml:"num_pixels"`
	Brightness uint8  `yaml:"brightness"` // 0..31
	Hue        int    `yaml:"hue"`
	Effect     string `yaml:"effect"` // "scroll" | "advance"
	FPS        int    `yaml:"fps"`    // 0 renders as fast as the bus allows
	Preview    string `yaml:"preview,omitempty"`
	SPI        SPI    `yaml:"spi"`
}

// SetBrightness checks v against the 5-bit range before narrowing it.
func (s *Strip) SetBrightness(v int) error {
	if v < 0 || v > 31 {
		return fmt.Errorf("config: strip.brightness must be 0..31, got %d", v)
	}
	s.Brightness = uint8(v)
	return nil
}

type Pins struct {
	Clock string `yaml:"clock"`
	Latch string `yaml:"latch"`
	Data  string `yaml:"data"`
	Clear string `yaml:"clear"`
}

type Seg7 struct {
	Pins  Pins          `yaml:"pins"`
	Delay time.Duration `yaml:"delay"`
}

type Config struct {
	Strip Strip `yaml:"strip"`
	Seg7  Seg7  `yaml:"seg7"`
}

// Default enumerates every option with the value used when nothing else is
// given.
func Default() *Config {
	return &Config{
		Strip: Strip{
			Driver:     "apa102",
			NumPixels:  73,
			Brightness: 8,
			Effect:     "scroll",
			SPI: SPI{
				SpeedHz:    16000000,
				NRZSpeedHz: 2500000,
			},
		},
		Seg7: Seg7{
			Pins:  Pins{Clock: "25", Latch: "18", Data: "20", Clear: "16"},
			Delay: time.Second,
		},
	}
}

// Load reads path over the defaults, so a partial file only overrides the
// keys it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	s := c.Strip
	if s.NumPixels <= 0 {
		return fmt.Errorf("config: strip.num_pixels must be positive, got %d", s.NumPixels)
	}
	if s.Brightness > 31 {
		return fmt.Errorf("config: strip.brightness must be 0..31, got %d", s.Brightness)
	}
	if s.Hue < 0 || s.Hue > 1535 {
		return fmt.Errorf("config: strip.hue must be 0..1535, got %d", s.Hue)
	}
	if s.SPI.Mode < 0 || s.SPI.Mode > 3 {
		return fmt.Errorf("config: strip.spi.mode must be 0..3, got %d", s.SPI.Mode)
	}
	if s.FPS < 0 {
		return fmt.Errorf("config: strip.fps must not be negative, got %d", s.FPS)
	}
	if c.Seg7.Delay < 0 {
		return fmt.Errorf("config: seg7.delay must not be negative, got %s", c.Seg7.Delay)
	}
	return nil
}
