package util

import (
	"errors"
	"strings"
)

// ErrPublic is an error whose message can be shown as-is to the end user.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

func (e ErrPublic) Is(target error) bool {
	_, ok := target.(ErrPublic)
	return ok
}

// IsPublic returns the user-facing message carried by err, if any.
func IsPublic(err error) (string, bool) {
	var public ErrPublic
	if errors.As(err, &public) {
		return public.Error(), true
	}

	return "", false
}

type concatError struct {
	errs []error
}

func (e *concatError) Error() string {
	msgs := make([]string, len(e.errs))
	for k, v := range e.errs {
		msgs[k] = v.Error()
	}

	return strings.Join(msgs, "; ")
}

func (e *concatError) Unwrap() []error {
	return e.errs
}

// ConcatErrors merges the non-nil errors into one, errors.Is and errors.As
// still match each of them.
func ConcatErrors(errs []error) error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}

	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &concatError{errs: filtered}
	}
}
