/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ixerrors defines the sentinel errors and the structured
// code+message taxonomy used to decide how to react to core failures.
package ixerrors

import "errors"

// Sentinel errors raised directly by codec, block, and reader code.
// These bubble from codec to reader to iterator to the query evaluator
// unchanged, per the propagation policy of the core's error design.
var (
	// ErrUnexpectedEOF signals buffer corruption or a truncated append:
	// a decoder hit the end of its byte stream mid-record.
	ErrUnexpectedEOF = errors.New("searchcore: unexpected EOF decoding record")

	// ErrShortWrite is returned by a codec's vectored-write fallback when
	// the sink accepted fewer bytes than requested.
	ErrShortWrite = errors.New("searchcore: short write encoding record")

	// ErrDeltaOverflow indicates a doc-id delta does not fit the codec's
	// maximum representable width; callers should open a new block.
	ErrDeltaOverflow = errors.New("searchcore: delta exceeds codec width")

	// ErrOutOfOrder names a doc id presented out of order. AddRecord does
	// not return it: an out-of-order append is rejected as a no-op with a
	// zero size delta and a nil error.
	ErrOutOfOrder = errors.New("searchcore: doc id out of order for append")
)

// Code is the externally-reported failure taxonomy described in the
// error-handling design: only Timeout, OutOfMemory, and IndexDropped are
// ever raised from this core's own logic. The rest are defined here so
// external callers (parser, planner, evaluator) share one vocabulary.
type Code int

const (
	CodeUnknown Code = iota
	CodeTimeout
	CodeParsing
	CodeQueryValidation
	CodeIndexNotFound
	CodeDocNotFound
	CodeLimitExceeded
	CodeOutOfMemory
	CodeIndexDroppedWhileQuerying
)

func (c Code) String() string {
	switch c {
	case CodeTimeout:
		return "timeout"
	case CodeParsing:
		return "parsing error"
	case CodeQueryValidation:
		return "query validation error"
	case CodeIndexNotFound:
		return "index not found"
	case CodeDocNotFound:
		return "doc not found"
	case CodeLimitExceeded:
		return "limit exceeded"
	case CodeOutOfMemory:
		return "out of memory"
	case CodeIndexDroppedWhileQuerying:
		return "index dropped while querying"
	default:
		return "unknown"
	}
}

// QueryError pairs a taxonomy Code with a human-readable message and an
// optional underlying cause, mirroring the teacher's small sentinel-error
// packages (pkg/camerrors) generalized to carry a code and a cause chain.
type QueryError struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *QueryError {
	return &QueryError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *QueryError {
	return &QueryError{Code: code, Message: message, Cause: cause}
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Code.String() + ": " + e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Timeout builds the one query-facing error the core raises directly from
// cooperative cancellation (see the iterator protocol's TimedOut outcome).
func Timeout(message string) *QueryError {
	return New(CodeTimeout, message)
}

// OutOfMemory builds the OOM error the allocator layer raises when the
// host module's allocator refuses growth.
func OutOfMemory(message string) *QueryError {
	return New(CodeOutOfMemory, message)
}

// IndexDropped builds the error raised when an iterator observes that its
// owning index (or the enclosing spec) has been dropped out from under it.
func IndexDropped(message string) *QueryError {
	return New(CodeIndexDroppedWhileQuerying, message)
}
