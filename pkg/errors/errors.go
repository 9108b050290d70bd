// Unified error handling for the macro generator
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Profile errors
	ErrProfileParse      ErrorCode = "PROFILE_PARSE"
	ErrProfileField      ErrorCode = "PROFILE_FIELD"
	ErrProfileValidation ErrorCode = "PROFILE_VALIDATION"

	// Generated document errors
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrMacroLint   ErrorCode = "MACRO_LINT"

	// Output errors
	ErrExport ErrorCode = "EXPORT"

	// Runtime errors
	ErrRuntime ErrorCode = "RUNTIME"
)

// HostError is the unified error type for the generator
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the source file (if available)
	File string

	// Line is the line number in the source file (if available)
	Line int

	// Section is the document section or profile group
	Section string

	// Option is the option or profile field name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	scope := e.Section
	if e.Option != "" {
		scope = e.Option
	}
	msg := fmt.Sprintf("[%s:%s] %s", e.Code, scope, e.Message)
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
		}
		return e.File + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetFile sets the source file
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the option or field name
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Profile errors

// ProfileParseError creates an error for an unreadable profile document
func ProfileParseError(file string, err error) *HostError {
	return Wrap(err, ErrProfileParse, fmt.Sprintf("failed to parse profile: %v", err)).
		SetFile(file)
}

// ProfileFieldError creates an error for a profile field with a bad value
func ProfileFieldError(field, value, reason string) *HostError {
	return New(ErrProfileField, fmt.Sprintf("field '%s': invalid value '%s' (%s)", field, value, reason)).
		SetOption(field)
}

// ValidationBlockedError creates an error for a profile whose validation
// produced blocking violations
func ValidationBlockedError(count int, first string) *HostError {
	msg := fmt.Sprintf("%d blocking violation(s): %s", count, first)
	return New(ErrProfileValidation, msg).
		SetSection("profile").
		SetContext("violations", count)
}

// Document errors

// ConfigParseError creates an error for a document that does not parse
func ConfigParseError(line int, reason string) *HostError {
	return New(ErrConfigParse, reason).SetLine(line)
}

// LintError creates an error summarizing lint issues in a document
func LintError(section string, count int, first string) *HostError {
	return New(ErrMacroLint, fmt.Sprintf("%d issue(s), first: %s", count, first)).
		SetSection(section)
}

// Output errors

// ExportError creates an error for a failed document write
func ExportError(path string, err error) *HostError {
	return Wrap(err, ErrExport, fmt.Sprintf("failed to write %s: %v", path, err)).
		SetFile(path)
}

// RuntimeError creates a general runtime error
func RuntimeError(message string) *HostError {
	return New(ErrRuntime, message)
}

// RecoverPanic safely recovers from panic and converts to error.
// It must be called directly by a deferred function.
func RecoverPanic(r interface{}) *HostError {
	if r == nil {
		return nil
	}
	switch x := r.(type) {
	case runtime.Error:
		return RuntimeError(x.Error())
	case error:
		return RuntimeError(x.Error())
	case string:
		return RuntimeError(fmt.Sprintf("panic: %s", x))
	default:
		return RuntimeError(fmt.Sprintf("panic: %v", x))
	}
}

// Is checks if error matches given error code, unwrapping as needed
func Is(err error, code ErrorCode) bool {
	var hostErr *HostError
	if stderrors.As(err, &hostErr) {
		return hostErr.Code == code
	}
	return false
}

// IsProfile checks if error is a profile error
func IsProfile(err error) bool {
	return Is(err, ErrProfileParse) ||
		Is(err, ErrProfileField) ||
		Is(err, ErrProfileValidation)
}
