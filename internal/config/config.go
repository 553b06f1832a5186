// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Plan PlanConfig `yaml:"plan"`
}

// ---- PLAN ----

type PlanConfig struct {
	Threads    int `yaml:"threads" validate:"gte=0"`
	Iterations int `yaml:"iterations" validate:"gte=0"`
	PacingMs   int `yaml:"pacing_ms" validate:"gte=0"`

	// Samplers run in order within every thread iteration.
	Samplers []SamplerConfig `yaml:"samplers" validate:"required,min=1,dive"`
}

// ---- SAMPLER ----

// Sampler types.
const (
	TypeConnect = "connect"
	TypeRead    = "read"
	TypeWrite   = "write"
	TypeClose   = "close"
)

// SamplerConfig is one sampler's property storage.
// Numeric properties stay text, as the host stores them, and are
// parsed when the sampler runs.
type SamplerConfig struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=connect read write close"`

	// connection
	IPAddress             string `yaml:"ip_address"`
	Port                  string `yaml:"port" validate:"omitempty,numeric"`
	Timeout               string `yaml:"timeout" validate:"omitempty,numeric"`
	RetryCount            string `yaml:"retry_count" validate:"omitempty,numeric"`
	KeepAlive             string `yaml:"keep_alive" validate:"omitempty,numeric"`
	UseExistingConnection bool   `yaml:"use_existing_connection"`

	// transaction
	Method         string `yaml:"method"`
	Address        string `yaml:"address"`
	Length         string `yaml:"length"`
	Value          string `yaml:"value"`
	DataType       string `yaml:"data_type"`
	ResetOldValues bool   `yaml:"reset_old_values"`
}

// Load reads a plan file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("config: empty plan")
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
