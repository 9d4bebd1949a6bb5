package core

import (
	"context"
	"errors"
	"io/fs"
)

var (
	// ErrNotFound is returned by a Host when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotReady means the wizard cannot finish because no install name is resolved.
	ErrNotReady = errors.New("no install name selected")
	// ErrUnknownCapability means an API identifier is not in the capability registry.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrInvalidAddress means an application address could not be parsed.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrDialogClosed is returned when an event arrives after the dialog finished.
	ErrDialogClosed = errors.New("dialog already closed")
)

// ErrorKind classifies a finalization failure for the host's error result.
type ErrorKind int

const (
	// ErrKindInternal is an unclassified failure.
	ErrKindInternal ErrorKind = iota
	// ErrKindNotFound means a record the host needed was missing.
	ErrKindNotFound
	// ErrKindPermission means the host could not write its install store.
	ErrKindPermission
	// ErrKindCancelled means the context was cancelled mid-call.
	ErrKindCancelled
	// ErrKindInvalidAddress means the target address could not be used.
	ErrKindInvalidAddress
)

// String returns the name reported in ErrorResult.Name.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "NotFoundError"
	case ErrKindPermission:
		return "PermissionDeniedError"
	case ErrKindCancelled:
		return "AbortError"
	case ErrKindInvalidAddress:
		return "InvalidAddressError"
	default:
		return "InternalError"
	}
}

// ClassifyError maps an error onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrKindInternal
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ErrKindNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrKindPermission
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCancelled
	case errors.Is(err, ErrInvalidAddress):
		return ErrKindInvalidAddress
	default:
		return ErrKindInternal
	}
}

// NewErrorResult builds the error-shaped close payload for err.
func NewErrorResult(err error) ErrorResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorResult{
		Name:          ClassifyError(err).String(),
		Message:       msg,
		InternalError: true,
	}
}
