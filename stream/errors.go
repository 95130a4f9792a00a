package stream

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes benchmark failures.
type ErrorKind int

const (
	// KindConfiguration covers invalid run parameters. The run never starts.
	KindConfiguration ErrorKind = iota
	// KindAllocation means the backend could not allocate the array triple.
	KindAllocation
	// KindKernelExecution means a kernel failed or is not implemented.
	KindKernelExecution
	// KindValidation means results deviate from the expected state.
	KindValidation
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAllocation:
		return "allocation"
	case KindKernelExecution:
		return "kernel execution"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ErrNotImplemented is returned by backends for kernels they do not provide.
var ErrNotImplemented = errors.New("not implemented")

// Error is a categorized benchmark error.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error in %s: %s: %v",
			e.Kind, e.Op, e.Message, e.Err)
	}

	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError reports an invalid run parameter.
func NewConfigurationError(op, message string) error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// NewAllocationError reports an array triple that could not be allocated.
func NewAllocationError(op, message string, err error) error {
	return &Error{Kind: KindAllocation, Op: op, Message: message, Err: err}
}

// NewKernelError reports a failed kernel call.
func NewKernelError(op, message string, err error) error {
	return &Error{Kind: KindKernelExecution, Op: op, Message: message, Err: err}
}

// NewValidationError reports results outside tolerance.
func NewValidationError(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	return isKind(err, KindConfiguration)
}

// IsAllocationError reports whether err is an allocation failure.
func IsAllocationError(err error) bool {
	return isKind(err, KindAllocation)
}

// IsKernelError reports whether err is a kernel execution failure.
func IsKernelError(err error) bool {
	return isKind(err, KindKernelExecution)
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	return isKind(err, KindValidation)
}
