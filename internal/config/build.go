// internal/config/build.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/modbus-sampler/internal/codec"
	"github.com/tamzrod/modbus-sampler/internal/engine"
)

// Build turns one sampler's properties into an operation descriptor.
// The retry count applies in both connection modes; endpoint and keep
// alive are parsed only when the sampler opens a new connection.
// Errors wrap engine.ErrValidation.
func Build(s SamplerConfig) (engine.Operation, error) {
	op := engine.Operation{
		Kind:                  engine.Kind(s.Method),
		Address:               s.Address,
		Length:                s.Length,
		Value:                 s.Value,
		DataType:              codec.DataType(s.DataType),
		UseExistingConnection: s.UseExistingConnection && s.Type != TypeConnect,
		ResetOldValues:        s.ResetOldValues,
	}

	if s.Type == TypeClose {
		return op, nil
	}

	NormalizeSampler(&s)

	retries, err := intProperty("retry count", s.RetryCount)
	if err != nil {
		return engine.Operation{}, err
	}
	op.RetryCount = retries

	if op.UseExistingConnection {
		return op, nil
	}

	port, err := intProperty("port", s.Port)
	if err != nil {
		return engine.Operation{}, err
	}
	if port < 1 || port > 65535 {
		return engine.Operation{}, fmt.Errorf("%w: port %d out of range", engine.ErrValidation, port)
	}

	timeout, err := intProperty("timeout", s.Timeout)
	if err != nil {
		return engine.Operation{}, err
	}
	if timeout < 0 {
		return engine.Operation{}, fmt.Errorf("%w: timeout %d is negative", engine.ErrValidation, timeout)
	}

	keepAlive, err := intProperty("keep alive", s.KeepAlive)
	if err != nil {
		return engine.Operation{}, err
	}

	op.Endpoint = engine.Endpoint{
		Host:    strings.TrimSpace(s.IPAddress),
		Port:    port,
		Timeout: time.Duration(timeout) * time.Millisecond,
	}
	op.KeepAlive = time.Duration(keepAlive) * time.Millisecond
	return op, nil
}

func intProperty(name, value string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", engine.ErrValidation, name, value)
	}
	return v, nil
}
