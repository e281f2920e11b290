package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StructuralParse indicates a document is not well-formed markup
	StructuralParse ErrorCode = "STRUCTURAL_PARSE_ERROR"
	// MissingElement indicates a mandatory element or attribute is absent
	MissingElement ErrorCode = "MISSING_ELEMENT"
	// NotFound indicates a named resource (component, file, sheet) does not exist
	NotFound ErrorCode = "NOT_FOUND"
	// FetchFailed indicates a metadata bundle could not be fetched
	FetchFailed ErrorCode = "FETCH_FAILED"
	// BatchFileFailed indicates one file of a batch could not be processed
	BatchFileFailed ErrorCode = "BATCH_FILE_FAILED"
	// InvalidArgument indicates a caller supplied a bad parameter
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ExportFailed indicates a sheet, CSV or archive could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// CheckInput suggests inspecting the offending input
	CheckInput FixActionType = "check-input"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// NxError represents an nxmeta error with code, message, and suggestions
type NxError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates an NxError with the default fixes for its code.
func New(code ErrorCode, message string, cause error) *NxError {
	return &NxError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *NxError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *NxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *NxError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *NxError) WithDetails(details interface{}) *NxError {
	e.Details = details
	return e
}

// Is reports whether target is an NxError with the same code.
func (e *NxError) Is(target error) bool {
	t, ok := target.(*NxError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// CodeOf extracts the code of the first NxError in err's chain.
// Errors that carry no code report InternalError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var nx *NxError
	if stderrors.As(err, &nx) {
		return nx.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var nx *NxError
	for err != nil {
		if !stderrors.As(err, &nx) {
			return false
		}
		if nx.Code == code {
			return true
		}
		err = nx.cause
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StructuralParse: {
		{
			Type:        CheckInput,
			Description: "Check that the document is well-formed XML",
		},
	},
	MissingElement: {
		{
			Type:        CheckInput,
			Description: "The document must contain an Object element with an id attribute",
		},
	},
	FetchFailed: {
		{
			Type:        RunCommand,
			Command:     "nxmeta groups --data-root <dir> --version <version>",
			Safe:        true,
			Description: "Verify the data root and work version",
		},
	},
	NotFound: {
		{
			Type:        RunCommand,
			Command:     "nxmeta groups --filter <term>",
			Safe:        true,
			Description: "Search for the component name",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
