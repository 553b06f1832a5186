// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tamzrod/modbus-sampler/internal/codec"
	"github.com/tamzrod/modbus-sampler/internal/engine"
)

var validate = validator.New()

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// Field values a sampler parses at run time (address, length, value)
// are not checked here; bad values there fail the sample, not the plan.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	names := make(map[string]int)

	for i, s := range cfg.Plan.Samplers {
		if prev, exists := names[s.Name]; exists {
			return fmt.Errorf(
				"sampler %q: name used by samplers #%d and #%d",
				s.Name,
				prev+1,
				i+1,
			)
		}
		names[s.Name] = i

		kind := engine.Kind(s.Method)

		switch s.Type {
		case TypeRead:
			if !kind.IsRead() {
				return fmt.Errorf("sampler %q: method %q is not a read method", s.Name, s.Method)
			}
		case TypeWrite:
			if !kind.IsWrite() {
				return fmt.Errorf("sampler %q: method %q is not a write method", s.Name, s.Method)
			}
		case TypeConnect:
			if s.UseExistingConnection {
				return fmt.Errorf("sampler %q: connect samplers always open a new connection", s.Name)
			}
		}

		// coils carry no data type
		if s.DataType != "" && !codec.DataType(s.DataType).Valid() {
			return fmt.Errorf("sampler %q: %w: %q", s.Name, codec.ErrUnsupportedDataType, s.DataType)
		}
	}

	return nil
}
