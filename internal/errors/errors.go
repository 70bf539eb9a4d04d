package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound          ErrorType = "NOT_FOUND"
	ErrTypeInvalidRecord     ErrorType = "INVALID_RECORD"
	ErrTypeInvalidConfig     ErrorType = "INVALID_CONFIG"
	ErrTypeInternal          ErrorType = "INTERNAL"
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

// InvalidRecord marks a single raw item that failed to parse, normalize or
// validate. Callers skip the item and keep the batch going.
func InvalidRecord(message string, err error) *DomainError {
	return New(ErrTypeInvalidRecord, message, err)
}

// InvalidConfig is a startup-time failure. It is the one error type that is
// allowed to abort the process.
func InvalidConfig(message string, err error) *DomainError {
	return New(ErrTypeInvalidConfig, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

// SourceUnavailable marks a whole-source fetch failure. Adapters return it
// together with an empty posting list; the aggregator logs and moves on.
func SourceUnavailable(message string, err error) *DomainError {
	return New(ErrTypeSourceUnavailable, message, err)
}

// TypeOf reports the domain error type of err, or ErrTypeInternal when err
// carries no domain type.
func TypeOf(err error) ErrorType {
	var derr *DomainError
	if goerrors.As(err, &derr) {
		return derr.Type
	}
	return ErrTypeInternal
}
