// Package errs classifies the failures surfaced by the helper packages.
//
// Every error returned by blmne packages carries one of four categories so that
// host apps can decide whether to abort a run or continue:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
//	switch errs.CategoryOf(err) { ... }
package errs

import (
	"errors"
	"fmt"
	"io/fs"
)

type Category string

const (
	CategoryNotFound   Category = "not_found"
	CategoryParse      Category = "parse_error"
	CategoryValidation Category = "validation_error"
	CategoryIO         Category = "io_error"
)

var (
	ErrNotFound   = &sentinel{category: CategoryNotFound}
	ErrParse      = &sentinel{category: CategoryParse}
	ErrValidation = &sentinel{category: CategoryValidation}
	ErrIO         = &sentinel{category: CategoryIO}
)

type sentinel struct {
	category Category
}

func (s *sentinel) Error() string {
	return string(s.category)
}

type classifiedError struct {
	category Category
	cause    error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return string(e.category)
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

// Is matches the sentinel of the same category.
func (e *classifiedError) Is(target error) bool {
	s, ok := target.(*sentinel)
	return ok && s.category == e.category
}

// Wrap attaches a category to cause. A nil cause stays nil.
func Wrap(cause error, category Category) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{category: category, cause: cause}
}

func NotFound(format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), CategoryNotFound)
}

func Parse(format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), CategoryParse)
}

func Validation(format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), CategoryValidation)
}

func IO(format string, args ...any) error {
	return Wrap(fmt.Errorf(format, args...), CategoryIO)
}

// CategoryOf returns the outermost category found in err's chain, or "".
func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

// FromOS classifies an error returned by the os/afero file APIs.
func FromOS(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, fs.ErrNotExist) {
		return Wrap(fmt.Errorf("%s: %w", msg, err), CategoryNotFound)
	}
	return Wrap(fmt.Errorf("%s: %w", msg, err), CategoryIO)
}
