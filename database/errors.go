// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import "fmt"

// ErrorKind classifies a Error the way callers need to distinguish them:
// whether to surface a permission message, a conflict, a limit, a bad
// document shape, or an unrecoverable configuration problem.
type ErrorKind int

const (
	// ErrAuthorization is raised when the permission gate denies an
	// update or delete. A denied read does not raise; it returns an
	// empty document.
	ErrAuthorization ErrorKind = iota
	// ErrDuplicate is raised on a case-insensitive attribute/index id
	// collision, a rename onto an existing target, or creating a
	// collection that already exists.
	ErrDuplicate
	// ErrLimit is raised when a schema mutation would exceed an
	// adapter-reported capability limit.
	ErrLimit
	// ErrStructure is raised when the Structure validator rejects a
	// document.
	ErrStructure
	// ErrGeneric covers every fatal configuration or usage error: unknown
	// types/formats, missing collections/attributes, an unregistered
	// filter, an unsupported index type, a malformed relationship value,
	// a cursor from the wrong collection, selecting an unknown attribute,
	// a violated numeric bound, or a non-positive increase/decrease value.
	ErrGeneric
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAuthorization:
		return "authorization"
	case ErrDuplicate:
		return "duplicate"
	case ErrLimit:
		return "limit"
	case ErrStructure:
		return "structure"
	default:
		return "generic"
	}
}

// Error is the error type every engine-raised failure is returned as.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
