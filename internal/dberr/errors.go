// Package dberr defines the error taxonomy shared by the storage and
// catalog core: a small set of kinds the caller can match on with
// errors.Is/errors.As, each optionally wrapping an underlying cause.
package dberr

import "fmt"

// Code identifies a kind of failure in the storage/catalog core.
type Code int

const (
	// CodeRelationNotFound means a catalog scan exhausted without a match.
	CodeRelationNotFound Code = iota
	// CodeNoRoomOnPage means a page lacks free space for an item.
	CodeNoRoomOnPage
	// CodeNoFreeBuffer means the buffer pool has no evictable frame.
	CodeNoFreeBuffer
	// CodePageCorruption means on-disk bytes violate page invariants.
	CodePageCorruption
	// CodeShortRead means storage I/O returned fewer bytes than a page.
	CodeShortRead
	// CodeShortWrite means storage I/O wrote fewer bytes than a page.
	CodeShortWrite
	// CodeCodecError means tuple or header decoding failed.
	CodeCodecError
	// CodeUnsupportedOperation means a caller asked for a feature this
	// core does not implement.
	CodeUnsupportedOperation
)

func (c Code) String() string {
	switch c {
	case CodeRelationNotFound:
		return "RelationNotFound"
	case CodeNoRoomOnPage:
		return "NoRoomOnPage"
	case CodeNoFreeBuffer:
		return "NoFreeBuffer"
	case CodePageCorruption:
		return "PageCorruption"
	case CodeShortRead:
		return "ShortRead"
	case CodeShortWrite:
		return "ShortWrite"
	case CodeCodecError:
		return "CodecError"
	case CodeUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the concrete error type returned by this core. Callers match
// on kind with errors.Is against the sentinel constructors below, or
// with errors.As(&dberr.Error{}) to inspect Code and Detail directly.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Code, letting
// callers write errors.Is(err, dberr.NoRoomOnPage()).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// RelationNotFound builds a CodeRelationNotFound error for relName.
func RelationNotFound(relName string) *Error {
	return &Error{Code: CodeRelationNotFound, Detail: fmt.Sprintf("relation %q does not exist", relName)}
}

// NoRoomOnPage builds a CodeNoRoomOnPage error.
func NoRoomOnPage() *Error {
	return &Error{Code: CodeNoRoomOnPage, Detail: "page has insufficient free space"}
}

// NoFreeBuffer builds a CodeNoFreeBuffer error.
func NoFreeBuffer() *Error {
	return &Error{Code: CodeNoFreeBuffer, Detail: "buffer pool exhausted by pinned frames"}
}

// PageCorruption builds a CodePageCorruption error with reason.
func PageCorruption(reason string) *Error {
	return &Error{Code: CodePageCorruption, Detail: reason}
}

// ShortRead builds a CodeShortRead error wrapping the underlying cause.
func ShortRead(detail string, cause error) *Error {
	return &Error{Code: CodeShortRead, Detail: detail, Cause: cause}
}

// ShortWrite builds a CodeShortWrite error wrapping the underlying cause.
func ShortWrite(detail string, cause error) *Error {
	return &Error{Code: CodeShortWrite, Detail: detail, Cause: cause}
}

// CodecError builds a CodeCodecError error with reason.
func CodecError(reason string) *Error {
	return &Error{Code: CodeCodecError, Detail: reason}
}

// UnsupportedOperation builds a CodeUnsupportedOperation error with detail.
func UnsupportedOperation(detail string) *Error {
	return &Error{Code: CodeUnsupportedOperation, Detail: detail}
}
