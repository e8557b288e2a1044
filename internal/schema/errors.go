package schema

import (
	"errors"
	"strings"
)

var ErrInvalidDocument = errors.New("invalid document")

// FieldError names one offending field. Path is dotted, rooted at the
// document that was decoded; it is empty for errors about the whole body.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidDocument.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Path == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Path+": "+f.Message)
	}
	return ErrInvalidDocument.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

func invalid(path, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Path: path, Message: message}}}
}
