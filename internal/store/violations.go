package store

import (
	"errors"
	"strings"
)

// ViolationKind labels the constraint class behind a failed statement.
type ViolationKind int

const (
	// ViolationUnknown is reported both for constraint failures the engine
	// describes in an unrecognized way and for errors that are not
	// constraint violations at all.
	ViolationUnknown ViolationKind = iota
	ViolationUnique
	ViolationForeignKey
	ViolationCheck
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationUnique:
		return "unique"
	case ViolationForeignKey:
		return "foreign key"
	case ViolationCheck:
		return "check"
	}
	return "unknown"
}

// Violation wraps a constraint failure with its classified kind. The
// embedded engine reports violations as flat message strings, so the kind is
// recovered by inspecting the error text; table and column identity may be
// unavailable. Match with errors.As, or use ViolationOf for the kind alone.
type Violation struct {
	Kind ViolationKind
	Err  error
}

func (v *Violation) Error() string {
	return "store: " + v.Kind.String() + " constraint violation: " + v.Err.Error()
}

func (v *Violation) Unwrap() error { return v.Err }

// ViolationOf reports the constraint class of err. Errors without a
// Violation in their chain classify as ViolationUnknown.
func ViolationOf(err error) ViolationKind {
	var v *Violation
	if errors.As(err, &v) {
		return v.Kind
	}
	return ViolationUnknown
}

// classifyViolation wraps constraint errors in a *Violation and returns
// every other error unchanged.
func classifyViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "constraint") {
		return err
	}
	kind := ViolationUnknown
	switch {
	case strings.Contains(msg, "unique constraint"):
		kind = ViolationUnique
	case strings.Contains(msg, "foreign key constraint"):
		kind = ViolationForeignKey
	case strings.Contains(msg, "check constraint"):
		kind = ViolationCheck
	}
	return &Violation{Kind: kind, Err: err}
}
