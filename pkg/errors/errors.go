package errors

import (
	"errors"
	"fmt"
)

// Severity places an error in the pipeline's failure taxonomy: a fatal
// error kills the whole run, a critical error aborts one message's
// pipeline, a recoverable error is logged and processing continues.
type Severity int

const (
	SeverityRecoverable Severity = iota
	SeverityCritical
	SeverityFatal
)

var (
	ErrFetch           = NewError("FETCH_ERROR", "message fetch failed", SeverityFatal)
	ErrClassification  = NewError("CLASSIFICATION_ERROR", "message classification failed", SeverityCritical)
	ErrExtraction      = NewError("EXTRACTION_ERROR", "logistics extraction failed", SeverityRecoverable)
	ErrGeocoding       = NewError("GEOCODING_ERROR", "address geocoding failed", SeverityRecoverable)
	ErrPersistence     = NewError("PERSISTENCE_ERROR", "record persistence failed", SeverityRecoverable)
	ErrInvalidResponse = NewError("INVALID_RESPONSE", "collaborator response violates contract", SeverityRecoverable)
	ErrTimeout         = NewError("TIMEOUT", "collaborator call timed out", SeverityRecoverable)
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Severity  Severity
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string, severity Severity) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Severity: severity,
		Details:  make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return e.Severity != SeverityFatal
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}
	return e.Severity == SeverityFatal
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	// Copy the map so shared sentinel errors stay untouched.
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func SeverityOf(err error) Severity {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity
	}
	return SeverityRecoverable
}

func IsFetch(err error) bool {
	return hasCode(err, ErrFetch.Code)
}

func IsClassification(err error) bool {
	return hasCode(err, ErrClassification.Code)
}

func IsGeocoding(err error) bool {
	return hasCode(err, ErrGeocoding.Code)
}

func IsInvalidResponse(err error) bool {
	return hasCode(err, ErrInvalidResponse.Code)
}

func IsTimeout(err error) bool {
	return hasCode(err, ErrTimeout.Code)
}

func hasCode(err error, code string) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}
