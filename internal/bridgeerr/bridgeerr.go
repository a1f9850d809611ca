// Package bridgeerr defines the error taxonomy shared by every component and
// the validation helpers used to reject bad input before it has a side
// effect.
package bridgeerr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is a machine-readable error category. Every error the RPC layer
// returns carries exactly one Kind.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindNotRegistered Kind = "not_registered"
	KindNoBackend     Kind = "no_backend"
	KindTransient     Kind = "transient"
	KindPeerLagged    Kind = "peer_lagged"
	KindFatal         Kind = "fatal"
)

// Error pairs a Kind with a human-readable message and, optionally, a
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to KindFatal for untyped
// errors so nothing silently becomes a successful response.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindFatal
}

// ScreenValidator rejects coordinates outside the current screen bounds.
type ScreenValidator struct {
	Width, Height int
}

func (v ScreenValidator) Validate(x, y int) error {
	if x < 0 {
		return New(KindInvalidInput, "x coordinate must be non-negative")
	}
	if y < 0 {
		return New(KindInvalidInput, "y coordinate must be non-negative")
	}
	if x >= v.Width {
		return New(KindInvalidInput, fmt.Sprintf("x coordinate out of range (max: %d)", v.Width-1))
	}
	if y >= v.Height {
		return New(KindInvalidInput, fmt.Sprintf("y coordinate out of range (max: %d)", v.Height-1))
	}
	return nil
}

// IsNearEdge reports whether (x, y) is within 10px of any screen edge, a
// hint used to warn callers that a click may miss its intended target after
// scaling/rounding.
func (v ScreenValidator) IsNearEdge(x, y int) bool {
	const margin = 10
	return x < margin || y < margin || x >= v.Width-margin || y >= v.Height-margin
}

// ValidateAppName rejects empty, overlong, or path-traversal-shaped names.
func ValidateAppName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return New(KindInvalidInput, "app name must not be empty")
	}
	if len(trimmed) > 256 {
		return New(KindInvalidInput, "app name exceeds 256 characters")
	}
	if strings.ContainsAny(trimmed, `/\`) || strings.Contains(trimmed, "..") {
		return New(KindInvalidInput, "app name must not contain path separators")
	}
	return nil
}

// ValidateWindowID parses a window id expressed as decimal or 0x-prefixed
// hex, rejecting anything else.
func ValidateWindowID(id string) (uint64, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return 0, New(KindInvalidInput, "window id must not be empty")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		v, err := strconv.ParseUint(trimmed[2:], 16, 64)
		if err != nil {
			return 0, Wrap(KindInvalidInput, "invalid hex window id", err)
		}
		return v, nil
	}
	v, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, Wrap(KindInvalidInput, "invalid window id", err)
	}
	return v, nil
}
