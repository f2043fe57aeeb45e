package api

import "errors"

// Error kinds understood by transport layers.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
)

// ErrorClassifier allows errors to declare their classification so transports
// can map them to status codes.
type ErrorClassifier interface {
	// ErrorKind returns a string classification of the error.
	ErrorKind() string
}

// ValidationError reports rejected input. It is raised before any store
// mutation takes place.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) ErrorKind() string { return KindValidation }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError reports a missing feature or an empty pending set.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) ErrorKind() string { return KindNotFound }

// NewNotFoundError builds a NotFoundError with the given message.
func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

// KindOf returns the classification of err, or an empty string when err does
// not carry one.
func KindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

// IsValidation reports whether err is classified as rejected input.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is classified as a missing resource.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
