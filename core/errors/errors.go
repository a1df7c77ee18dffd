// Package errors provides the error taxonomy shared by the reader, the query
// engine and the front ends.
//
// Every failure surfaced by the engine matches exactly one leaf sentinel
// (ErrInvalidHeader, ErrMalformedVarint, ...) and, through it, one family
// sentinel (ErrOpen, ErrDecode, ErrTraversal, ErrSchema, ErrQuery).
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// Families.
var (
	ErrOpen      = errors.New("open error")
	ErrDecode    = errors.New("decode error")
	ErrTraversal = errors.New("traversal error")
	ErrSchema    = errors.New("schema error")
	ErrQuery     = errors.New("query error")
)

// kind is a leaf sentinel that unwraps to its family.
type kind struct {
	msg    string
	family error
}

func (k *kind) Error() string { return k.msg }
func (k *kind) Unwrap() error { return k.family }

// Leaf sentinels.
var (
	ErrFileNotFound  error = &kind{"database file not found", ErrOpen}
	ErrInvalidHeader error = &kind{"invalid header", ErrOpen}

	ErrMalformedVarint error = &kind{"malformed varint", ErrDecode}
	ErrCorruptRecord   error = &kind{"corrupt record", ErrDecode}
	// ErrUnsupportedSerialType also matches ErrCorruptRecord.
	ErrUnsupportedSerialType error = &kind{"unsupported serial type", ErrCorruptRecord}

	ErrCorruptPage         error = &kind{"corrupt page", ErrTraversal}
	ErrOverflowChainBroken error = &kind{"overflow chain broken", ErrTraversal}

	ErrUnparseableCreate error = &kind{"unparseable create statement", ErrSchema}

	ErrTableNotFound  error = &kind{"table not found", ErrQuery}
	ErrColumnNotFound error = &kind{"column not found", ErrQuery}
)

// CorruptionError reports a decode or traversal failure at a location in
// the file. Page is 0 when the failure is not tied to a page; Offset is -1
// when the byte position is unknown.
type CorruptionError struct {
	Kind   error  // leaf sentinel, e.g. ErrCorruptPage
	Page   uint32 // 1-based page number
	Offset int    // byte offset within the page or payload
	Detail string
}

func (e *CorruptionError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Page != 0 && e.Offset >= 0:
		return fmt.Sprintf("%s (page %d, offset %d)", msg, e.Page, e.Offset)
	case e.Page != 0:
		return fmt.Sprintf("%s (page %d)", msg, e.Page)
	case e.Offset >= 0:
		return fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	return msg
}

func (e *CorruptionError) Unwrap() error {
	return e.Kind
}

// NewCorruption creates a CorruptionError.
func NewCorruption(kind error, page uint32, offset int, format string, args ...interface{}) *CorruptionError {
	return &CorruptionError{
		Kind:   kind,
		Page:   page,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// AtPage fills in the page number of a CorruptionError raised by code that
// only knew an offset. Other errors are returned unchanged.
func AtPage(err error, page uint32) error {
	var ce *CorruptionError
	if errors.As(err, &ce) && ce.Page == 0 {
		cp := *ce
		cp.Page = page
		return &cp
	}
	return err
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "column", "database file")
	ID       string // Identifier of the resource
	Kind     error  // Leaf sentinel, if any
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() []error {
	errs := []error{ErrNotFound}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing error
type ParseError struct {
	Format  string // What was being parsed (e.g., "CREATE TABLE", "SELECT")
	Path    string // Object or file name, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s for %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewTableNotFound creates a NotFoundError for a missing table.
func NewTableNotFound(table string) *NotFoundError {
	return &NotFoundError{Resource: "table", ID: table, Kind: ErrTableNotFound}
}

// NewColumnNotFound creates a NotFoundError for a missing column.
func NewColumnNotFound(table, column string) *NotFoundError {
	return &NotFoundError{Resource: "column", ID: table + "." + column, Kind: ErrColumnNotFound}
}

// NewFileNotFound creates a NotFoundError for a database path that does not
// exist. It matches both ErrFileNotFound and fs.ErrNotExist.
func NewFileNotFound(path string, err error) *NotFoundError {
	if err == nil {
		err = fs.ErrNotExist
	}
	return &NotFoundError{Resource: "database file", ID: path, Kind: ErrFileNotFound, Err: err}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
