package invoice

import (
	"fmt"
	"strings"
)

// Severity ranks a validation finding. Warnings never block serialization;
// errors do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is a single field-tagged validation finding. Findings are
// collected into a list so a caller can present every problem in one pass
// instead of failing on the first.
type ValidationError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

// ValidationErrors aggregates findings and satisfies error so callers that
// abort on invalid input (for example the XML serializer) can surface the
// whole list at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "invoice validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invoice validation failed: %s", strings.Join(parts, "; "))
}

func newError(code, field, message string) ValidationError {
	return ValidationError{Code: code, Message: message, Field: field, Severity: SeverityError}
}

func newWarning(code, field, message string) ValidationError {
	return ValidationError{Code: code, Message: message, Field: field, Severity: SeverityWarning}
}
