// Package config loads and validates run parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"wsn-simulator/internal/energy"
	"wsn-simulator/internal/network"
	"wsn-simulator/internal/topology"
	"wsn-simulator/internal/traffic"
)

var validate = validator.New()

// FieldConfig is the placement rectangle and the node population.
type FieldConfig struct {
	Width          int  `yaml:"x" validate:"gte=0"`
	Height         int  `yaml:"y" validate:"gte=0"`
	Offset         int  `yaml:"l" validate:"gte=0"`
	NodeCount      int  `yaml:"n" validate:"gte=1,lte=99"`
	UseCompression bool `yaml:"compress"`
}

// RadioConfig holds the per-node transmission and energy parameters.
type RadioConfig struct {
	PacketBytes   int     `yaml:"packet_bytes" validate:"gte=1"`
	Interval      float64 `yaml:"interval" validate:"gt=0"`
	InitialEnergy float64 `yaml:"initial_energy" validate:"gt=0"`
	CostPerByte   float64 `yaml:"cost_per_byte" validate:"gt=0"`
	BitRate       float64 `yaml:"bit_rate" validate:"gt=0"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type Config struct {
	Field   FieldConfig   `yaml:"field"`
	Radio   RadioConfig   `yaml:"radio"`
	Seed    uint64        `yaml:"seed"`
	Until   float64       `yaml:"until" validate:"gte=0"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Store   StoreConfig   `yaml:"store"`
}

// Default matches the reference run: a 50x50 field 10 units from the server,
// one node, compression on.
func Default() Config {
	return Config{
		Field: FieldConfig{
			Width:          50,
			Height:         50,
			Offset:         10,
			NodeCount:      1,
			UseCompression: true,
		},
		Radio: RadioConfig{
			PacketBytes:   network.DefaultPacketBytes,
			Interval:      traffic.DefaultInterval,
			InitialEnergy: energy.DefaultInitialEnergy,
			CostPerByte:   energy.DefaultCostPerByte,
			BitRate:       network.DefaultBitRate,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return errors.Join(errs...)
}

// Topology converts the field section into generator input.
func (c Config) Topology() topology.FieldConfig {
	return topology.FieldConfig{
		Width:          c.Field.Width,
		Height:         c.Field.Height,
		Offset:         c.Field.Offset,
		NodeCount:      c.Field.NodeCount,
		UseCompression: c.Field.UseCompression,
		InitialEnergy:  c.Radio.InitialEnergy,
		CostPerByte:    c.Radio.CostPerByte,
	}
}
