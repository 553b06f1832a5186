// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-sampler/internal/codec"
)

// Failure kinds. Every error returned by the engine wraps exactly one of these.
var (
	ErrUnresolvedHost       = errors.New("unresolved host")
	ErrConnectFailure       = errors.New("connect failure")
	ErrNoExistingConnection = errors.New("no existing connection")
	ErrNoActiveConnection   = errors.New("no active connection")
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnsupportedDataType  = codec.ErrUnsupportedDataType
	ErrTransactionFailure   = errors.New("transaction failure")
)

// fail wraps cause under kind so errors.Is matches kind and the text keeps
// the cause. Causes are formatted, not wrapped, so a cause that happens to
// carry another kind never misclassifies.
func fail(kind error, cause any) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %v", kind, cause)
}

// retryable reports whether the outer orchestration loop may try again.
// Dial failures are already retried by the manager's own loop.
func retryable(err error) bool {
	return errors.Is(err, ErrTransactionFailure)
}

// txFail wraps a client error as a transaction failure. The client
// error stays in the chain so device exception codes reach errors.As.
func txFail(err error) error {
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}
