// SPDX-License-Identifier: BSD-3-Clause

package xtract

import "fmt"

// ConformanceError reports input that violates ISO 32000-2.
type ConformanceError struct {
	Msg   string
	Cause error
}

func (e *ConformanceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("conformance: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("conformance: %s", e.Msg)
}

func (e *ConformanceError) Unwrap() error { return e.Cause }

func conformance(format string, args ...interface{}) error {
	return &ConformanceError{Msg: fmt.Sprintf(format, args...)}
}

func conformanceWrap(cause error, format string, args ...interface{}) error {
	return &ConformanceError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// NotSupportedError reports a valid PDF feature this module does not implement.
type NotSupportedError struct {
	Msg   string
	Cause error
}

func (e *NotSupportedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("not supported: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("not supported: %s", e.Msg)
}

func (e *NotSupportedError) Unwrap() error { return e.Cause }

func notSupported(format string, args ...interface{}) error {
	return &NotSupportedError{Msg: fmt.Sprintf(format, args...)}
}

// BugError reports an invariant this implementation should itself guarantee.
type BugError struct {
	Msg   string
	Cause error
}

func (e *BugError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bug: %s: %v", e.Msg, e.Cause)
	}
	return fmt.Sprintf("bug: %s", e.Msg)
}

func (e *BugError) Unwrap() error { return e.Cause }

func bug(format string, args ...interface{}) error {
	return &BugError{Msg: fmt.Sprintf(format, args...)}
}
