package common

import (
	"errors"
	"strings"
)

// FieldError is a single violated rule.
type FieldError struct {
	// Field is the attribute the rule applies to ("base" for the whole record).
	Field string
	// Kind is one of the sentinel errors of this package.
	Kind error
	// Detail is a human-readable explanation.
	Detail string
}

func (e FieldError) Error() string {
	if e.Detail == "" {
		return e.Field + ": " + e.Kind.Error()
	}
	return e.Field + ": " + e.Kind.Error() + " (" + e.Detail + ")"
}

func (e FieldError) Unwrap() error {
	return e.Kind
}

// ValidationErrors accumulates every violated rule of one check so a caller
// can report them all at once. Use errors.Is to look for a kind.
type ValidationErrors []FieldError

// Add appends a violation.
func (v *ValidationErrors) Add(field string, kind error, detail string) {
	*v = append(*v, FieldError{Field: field, Kind: kind, Detail: detail})
}

// Merge appends the violations carried by err. Errors that are not
// ValidationErrors are recorded against "base".
func (v *ValidationErrors) Merge(err error) {
	if err == nil {
		return
	}
	var other ValidationErrors
	if errors.As(err, &other) {
		*v = append(*v, other...)
		return
	}
	v.Add("base", err, "")
}

// Has reports whether a violation of the given kind was recorded.
func (v ValidationErrors) Has(kind error) bool {
	for _, e := range v {
		if errors.Is(e.Kind, kind) {
			return true
		}
	}
	return false
}

// Err returns nil when nothing was recorded, otherwise v itself.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}
