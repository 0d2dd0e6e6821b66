package common

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/expense-ocr/constants"
)

// AppError carries a stable code next to a human message and the underlying cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

const (
	CodeConfig          = "CONFIG_ERROR"
	CodeDecode          = "DECODE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidManifest = "INVALID_MANIFEST"
)

var (
	ErrDecode          = errors.New("document could not be decoded")
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrInvalidInput    = errors.New("invalid input")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// DecodeError marks err as a decode failure while keeping it inspectable.
func DecodeError(what string, err error) error {
	return NewAppError(CodeDecode, what, errors.Join(ErrDecode, err))
}

// InvalidInput reports bad caller input; the result matches ErrInvalidInput and cause.
func InvalidInput(code, message string, cause error) error {
	if cause == nil {
		return NewAppError(code, message, ErrInvalidInput)
	}
	return NewAppError(code, message, errors.Join(ErrInvalidInput, cause))
}

// DocStatusOf classifies the outcome of processing one document.
func DocStatusOf(err error) constants.DocStatus {
	switch {
	case err == nil:
		return constants.StatusOK
	case errors.Is(err, ErrDecode):
		return constants.StatusDecodeError
	case errors.Is(err, ErrUnsupportedType):
		return constants.StatusUnsupportedType
	default:
		return constants.StatusFailed
	}
}
