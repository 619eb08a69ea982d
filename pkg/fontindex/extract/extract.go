// Package extract defines the metadata extractor contract consumed by the
// index and ships a default implementation over golang.org/x/image/font/sfnt.
//
// Extractors must classify failures: a file that is not a recognizable font
// yields an *UnrecognizedError, a recognized but structurally broken font
// yields a *ValidationError. Callers test with errors.Is against
// ErrUnrecognized and ErrValidation.
package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
var (
	ErrValidation   = errors.New("font validation failed")
	ErrUnrecognized = errors.New("unrecognized font format")
)

// Metadata holds the name fields read from a font file.
type Metadata struct {
	FullName               string
	FamilyName             string
	Subfamily              string
	PreferredFamilyName    string
	PreferredSubfamilyName string
}

// Complete reports whether the fields required for indexing are present.
func (m Metadata) Complete() bool {
	return m.FullName != "" && m.FamilyName != "" && m.Subfamily != ""
}

// Extractor reads font metadata from a file. Implementations may be slow and
// must be safe for concurrent use.
type Extractor interface {
	Extract(path string) (Metadata, error)
}

// Func adapts a plain function to Extractor.
type Func func(path string) (Metadata, error)

// Extract calls f(path).
func (f Func) Extract(path string) (Metadata, error) {
	return f(path)
}

// ValidationError reports a recognized font that is structurally invalid.
type ValidationError struct {
	Path    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying parse error, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnrecognizedError reports a file whose format is not a supported font.
type UnrecognizedError struct {
	Path    string
	Message string
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Is matches ErrUnrecognized.
func (e *UnrecognizedError) Is(target error) bool { return target == ErrUnrecognized }
