// Package perrors defines the error taxonomy shared by every perception component.
package perrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupportedModality Kind = "unsupported_modality"
	KindAnalysis            Kind = "analysis_error"
	KindNotFound            Kind = "not_found"
	KindCollaborator        Kind = "collaborator_error"
)

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedModality = errors.New("unsupported modality")
	ErrAnalysis            = errors.New("analysis failed")
	ErrNotFound            = errors.New("not found")
	ErrCollaborator        = errors.New("collaborator failed")
)

var sentinels = map[Kind]error{
	KindInvalidInput:        ErrInvalidInput,
	KindUnsupportedModality: ErrUnsupportedModality,
	KindAnalysis:            ErrAnalysis,
	KindNotFound:            ErrNotFound,
	KindCollaborator:        ErrCollaborator,
}

// Error carries the kind, where it happened, and the original cause.
type Error struct {
	Kind      Kind
	Component string
	Op        string
	Err       error
}

// New builds an *Error. err may be nil when there is no underlying cause.
func New(kind Kind, component, op string, err error) *Error {
	return &Error{Kind: kind, Component: component, Op: op, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind Kind, component, op, format string, args ...any) *Error {
	return New(kind, component, op, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Component
	if e.Op != "" {
		prefix += "." + e.Op
	}
	msg := string(e.Kind)
	if s, ok := sentinels[e.Kind]; ok {
		msg = s.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match on Kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind && (t.Component == "" || t.Component == e.Component)
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ComponentOf returns the component of the outermost *Error in err's chain.
func ComponentOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Component
	}
	return ""
}
