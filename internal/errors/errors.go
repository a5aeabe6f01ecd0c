// internal/errors/errors.go - Typed failure kinds for a run
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a failure so callers can branch on it without parsing text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindElementNotFound is raised by the wait helper when nothing matched in time.
	KindElementNotFound
	// KindNavigation covers any failure while logging in or walking to the player.
	KindNavigation
	// KindAdvanceClick is a failed wait or click inside the advance loop.
	KindAdvanceClick
	// KindSessionLaunch means the browser or its driver could not be started.
	KindSessionLaunch
	// KindConfig is an invalid or missing configuration.
	KindConfig
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindElementNotFound: "element_not_found",
	KindNavigation:      "navigation",
	KindAdvanceClick:    "advance_click",
	KindSessionLaunch:   "session_launch",
	KindConfig:          "config",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Locator string
	Timeout time.Duration
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind == KindElementNotFound {
		fmt.Fprintf(&b, "element %s not found after %s", e.Locator, e.Timeout)
		if e.Err != nil {
			b.WriteString(": ")
			b.WriteString(e.Err.Error())
		}
		return b.String()
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewElementNotFound reports that locator matched nothing within timeout.
func NewElementNotFound(locator string, timeout time.Duration, cause error) *Error {
	return &Error{
		Kind:    KindElementNotFound,
		Op:      "wait",
		Locator: locator,
		Timeout: timeout,
		Err:     cause,
	}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a new error of the given kind.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost kind in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				if Is(inner, kind) {
					return true
				}
			}
			return false
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
