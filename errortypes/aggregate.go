package errortypes

import (
	"fmt"
	"strings"
)

// AggregateErrors reports every problem found by a pass that keeps going after the first failure, such as
// configuration validation or a vendor list refresh.
type AggregateErrors struct {
	Message string
	Errors  []error
}

func NewAggregateErrors(msg string, errs []error) AggregateErrors {
	return AggregateErrors{
		Message: msg,
		Errors:  errs,
	}
}

// Error lists the problems one per line under the message.
func (e AggregateErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s: %v", e.Message, e.Errors[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d problems):", e.Message, len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected problems to errors.Is and errors.As.
func (e AggregateErrors) Unwrap() []error {
	return e.Errors
}
