// internal/config/normalize.go
package config

// Property defaults, as the host stores them.
const (
	DefaultTimeout    = "2000"
	DefaultRetryCount = "3"
	DefaultKeepAlive  = "0"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Plan.Threads == 0 {
		cfg.Plan.Threads = 1
	}
	if cfg.Plan.Iterations == 0 {
		cfg.Plan.Iterations = 1
	}

	for i := range cfg.Plan.Samplers {
		NormalizeSampler(&cfg.Plan.Samplers[i])
	}
}

// NormalizeSampler fills empty connection properties with their defaults.
func NormalizeSampler(s *SamplerConfig) {
	if s.Timeout == "" {
		s.Timeout = DefaultTimeout
	}
	if s.RetryCount == "" {
		s.RetryCount = DefaultRetryCount
	}
	if s.KeepAlive == "" {
		s.KeepAlive = DefaultKeepAlive
	}
}
