package errors

import (
	stderrors "errors"
	"fmt"
)

// PDFError describes a failure or warning raised while filling or drawing on a PDF
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Recoverable bool      `json:"recoverable"`
	PageNumber  int       `json:"page_number,omitempty"`
	Widget      string    `json:"widget,omitempty"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of failures the form engine distinguishes
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidDocument
	ErrorTypeInvalidData
	ErrorTypeMalformedWidget
	ErrorTypeFontRegistration
	ErrorTypeInvalidImage
	ErrorTypeInvalidInstruction
	ErrorTypeWriteFailure
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Widget != "" {
		msg += fmt.Sprintf(" (widget %q", e.Widget)
		if e.PageNumber > 0 {
			msg += fmt.Sprintf(", page %d", e.PageNumber)
		}
		msg += ")"
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *PDFError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeInvalidData:
		return "INVALID_DATA"
	case ErrorTypeMalformedWidget:
		return "MALFORMED_WIDGET"
	case ErrorTypeFontRegistration:
		return "FONT_REGISTRATION"
	case ErrorTypeInvalidImage:
		return "INVALID_IMAGE"
	case ErrorTypeInvalidInstruction:
		return "INVALID_INSTRUCTION"
	case ErrorTypeWriteFailure:
		return "WRITE_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeInvalidDocument, ErrorTypeWriteFailure:
		return SeverityFatal
	case ErrorTypeInvalidData, ErrorTypeInvalidInstruction:
		return SeverityError
	case ErrorTypeMalformedWidget, ErrorTypeFontRegistration, ErrorTypeInvalidImage:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether processing may continue after an error of this type.
// Recoverable errors are surfaced as warnings; the rest abort the operation.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeMalformedWidget, ErrorTypeFontRegistration, ErrorTypeInvalidImage:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	if err != nil {
		e.Context = err.Error()
	}
	e.Err = err
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// WithWidget records the widget the error refers to
func (e *PDFError) WithWidget(name string) *PDFError {
	e.Widget = name
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsType reports whether err, or any error it wraps, is a PDFError of the given type
func IsType(err error, errorType ErrorType) bool {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type == errorType
	}
	return false
}

// As returns the PDFError in err's chain, if any
func As(err error) (*PDFError, bool) {
	var pe *PDFError
	ok := stderrors.As(err, &pe)
	return pe, ok
}

// ErrorCollection gathers errors and warnings raised during one operation
type ErrorCollection struct {
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
	}
}

// Add adds an error to the appropriate collection based on recoverability
func (ec *ErrorCollection) Add(err *PDFError) {
	if err == nil {
		return
	}
	if err.Recoverable {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// Merge appends all entries of other into ec
func (ec *ErrorCollection) Merge(other *ErrorCollection) {
	if other == nil {
		return
	}
	ec.Errors = append(ec.Errors, other.Errors...)
	ec.Warnings = append(ec.Warnings, other.Warnings...)
}

// First returns the first unrecoverable error, or nil
func (ec *ErrorCollection) First() error {
	if len(ec.Errors) == 0 {
		return nil
	}
	return ec.Errors[0]
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
