package util

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%v\nSuggestion: %s", e.Err, e.Suggestion)
}

// WrapErrorWithSuggestion creates an error with a helpful suggestion
func WrapErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetErrorSuggestion returns helpful suggestions based on common error patterns
func GetErrorSuggestion(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// File errors
	if strings.Contains(errStr, "no such file or directory") {
		return "Check the file path and ensure the file exists"
	}

	if strings.Contains(errStr, "permission denied") {
		return "Check file permissions or choose an output path you can write to"
	}

	// Pipeline errors
	if strings.Contains(errStr, "context canceled") {
		return "The run was interrupted. Partial results may still have been written"
	}

	if strings.Contains(errStr, "context deadline exceeded") {
		return "The operation took too long. Consider raising the join timeout or lowering the task delay"
	}

	// Configuration errors
	if strings.Contains(errStr, "invalid configuration") || strings.Contains(errStr, "failed to load config") {
		return "Check if the configuration file exists and is valid JSON. Use -config to specify a custom path"
	}

	// Default suggestion
	return "Check the error message above and ensure all requirements are met"
}

// FormatError formats an error with suggestions for better user experience
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	// Check if it already has a suggestion
	if _, ok := err.(*ErrorWithSuggestion); ok {
		return err.Error()
	}

	suggestion := GetErrorSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %v\nSuggestion: %s", err, suggestion)
	}

	return fmt.Sprintf("Error: %v", err)
}
