package common

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// FieldError is one rejected setting.
type FieldError struct {
	Key    string
	Value  any
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s=%q %s", e.Key, fmt.Sprint(e.Value), e.Reason)
}

// Checks accumulates FieldErrors across a set of settings, so every bad value is
// reported at once.
type Checks struct {
	errs []FieldError
}

func (c *Checks) fail(key string, value any, reason string) *Checks {
	c.errs = append(c.errs, FieldError{Key: key, Value: value, Reason: reason})
	return c
}

func (c *Checks) NotBlank(key, value string) *Checks {
	if strings.TrimSpace(value) == "" {
		return c.fail(key, value, "is required")
	}
	return c
}

func (c *Checks) Positive(key string, value int64) *Checks {
	if value <= 0 {
		return c.fail(key, value, "must be greater than zero")
	}
	return c
}

func (c *Checks) OneOf(key, value string, allowed ...string) *Checks {
	if !slices.Contains(allowed, value) {
		return c.fail(key, value, "must be one of: "+strings.Join(allowed, ", "))
	}
	return c
}

// Fields returns the failures collected so far.
func (c *Checks) Fields() []FieldError {
	return c.errs
}

// Err returns nil when every check passed, otherwise an AppError with the given
// code that matches ErrInvalidInput and each FieldError.
func (c *Checks) Err(code string) error {
	if len(c.errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(c.errs))
	causes := []error{ErrInvalidInput}
	for _, fe := range c.errs {
		msgs = append(msgs, fe.Error())
		causes = append(causes, fe)
	}
	return NewAppError(code, strings.Join(msgs, "; "), errors.Join(causes...))
}
