package media

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which pipeline stage produced a failure.
type ErrorKind string

const (
	KindOptimizationFailed ErrorKind = "optimization_failed"
	KindUploadFailed       ErrorKind = "upload_failed"
	KindProcessingFailed   ErrorKind = "processing_failed"
	KindProcessingTimeout  ErrorKind = "processing_timeout"
)

// Sentinels usable with errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrOptimizationFailed = &Error{Kind: KindOptimizationFailed, Message: "media optimization failed"}
	ErrUploadFailed       = &Error{Kind: KindUploadFailed, Message: "media upload failed"}
	ErrProcessingFailed   = &Error{Kind: KindProcessingFailed, Message: "media processing failed"}
	ErrProcessingTimeout  = &Error{Kind: KindProcessingTimeout, Message: "media processing timed out"}
)

// Error is the single error type surfaced by the media pipeline.
type Error struct {
	Kind    ErrorKind
	Message string
	// Err is the upstream cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers never have to compare messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Detail returns the upstream message, falling back to Message.
func (e *Error) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func optimizationFailed(message string, cause error) *Error {
	return newError(KindOptimizationFailed, message, cause)
}

func uploadFailed(message string, cause error) *Error {
	return newError(KindUploadFailed, message, cause)
}

func processingFailed(message string, cause error) *Error {
	return newError(KindProcessingFailed, message, cause)
}

func processingTimeout(message string, cause error) *Error {
	return newError(KindProcessingTimeout, message, cause)
}

// KindOf extracts the discriminant from err. The second result is false when
// err did not originate from the pipeline.
func KindOf(err error) (ErrorKind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}

// IsTransient reports whether the failure is worth retrying as a whole.
// Only a processing timeout qualifies; the asset may still finish server side.
// That includes a caller giving up while the platform was still processing.
func IsTransient(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindProcessingTimeout
}
