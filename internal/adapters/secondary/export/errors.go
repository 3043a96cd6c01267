package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// ExportErrorType categorizes different types of export errors
type ExportErrorType string

const (
	ErrorTypeValidation    ExportErrorType = "validation"
	ErrorTypeCapture       ExportErrorType = "capture"
	ErrorTypeBrowser       ExportErrorType = "browser"
	ErrorTypeFilesystem    ExportErrorType = "filesystem"
	ErrorTypeTimeout       ExportErrorType = "timeout"
	ErrorTypeNetwork       ExportErrorType = "network"
	ErrorTypeConfiguration ExportErrorType = "configuration"
	ErrorTypeAssembly      ExportErrorType = "assembly"
)

// ExportError provides detailed error information with categorization
type ExportError struct {
	Type      ExportErrorType `json:"type"`
	Message   string          `json:"message"`
	Details   string          `json:"details,omitempty"`
	Code      string          `json:"code,omitempty"`
	Retryable bool            `json:"retryable"`
	Cause     error           `json:"-"`
}

func (e *ExportError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s error: %s - %s", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func validationError(message, details string) *ExportError {
	return &ExportError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
		Code:    "INVALID_REQUEST",
	}
}

// allFailedError reports an export in which no slide could be captured.
func allFailedError(total int, last error) *ExportError {
	err := &ExportError{
		Type:      ErrorTypeCapture,
		Message:   "no slide could be captured",
		Details:   fmt.Sprintf("%d of %d slides failed", total, total),
		Code:      "ALL_SLIDES_FAILED",
		Retryable: true,
		Cause:     entities.ErrAllSlidesFailed,
	}
	if last != nil {
		err.Cause = fmt.Errorf("%w: last error: %w", entities.ErrAllSlidesFailed, last)
	}
	return err
}

// categorizeError wraps err into an ExportError
func categorizeError(err error) *ExportError {
	if err == nil {
		return nil
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr
	}

	errMsg := err.Error()
	lower := strings.ToLower(errMsg)

	switch {
	case errors.Is(err, context.Canceled):
		return &ExportError{
			Type:    ErrorTypeTimeout,
			Message: "export cancelled",
			Code:    "CANCELLED",
			Cause:   err,
		}
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "timeout"):
		return &ExportError{
			Type:      ErrorTypeTimeout,
			Message:   "operation timed out",
			Details:   errMsg,
			Code:      "TIMEOUT",
			Retryable: true,
			Cause:     err,
		}
	case errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist):
		return &ExportError{
			Type:    ErrorTypeFilesystem,
			Message: "file access failed",
			Details: errMsg,
			Code:    "FILE_ACCESS",
			Cause:   err,
		}
	case strings.Contains(lower, "chrome") || strings.Contains(lower, "browser") || strings.Contains(lower, "headless"):
		return &ExportError{
			Type:      ErrorTypeBrowser,
			Message:   "browser automation failed",
			Details:   errMsg,
			Code:      "BROWSER_ERROR",
			Retryable: true,
			Cause:     err,
		}
	case strings.Contains(lower, "network") || strings.Contains(lower, "connection"):
		return &ExportError{
			Type:      ErrorTypeNetwork,
			Message:   "network error",
			Details:   errMsg,
			Code:      "NETWORK_ERROR",
			Retryable: true,
			Cause:     err,
		}
	default:
		return &ExportError{
			Type:    ErrorTypeAssembly,
			Message: "export failed",
			Details: errMsg,
			Code:    "EXPORT_ERROR",
			Cause:   err,
		}
	}
}
