package binding

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Error is returned by [Collect] together with a usable Set. Each wrapped
// error is a member that could not be bound; its item was skipped.
type Error struct {
	errs    *multierror.Error
	skipped int
}

func newError(errs *multierror.Error, skipped int) *Error {
	errs.ErrorFormat = func(es []error) string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Skipped %v items:", skipped)
		for _, err := range es {
			sb.WriteString("\n  ")
			sb.WriteString(err.Error())
		}
		return sb.String()
	}
	return &Error{errs: errs, skipped: skipped}
}

// Error returns a short error message.
func (e *Error) Error() string {
	if e.errs.Len() == 1 {
		return e.errs.Errors[0].Error()
	}
	return fmt.Sprintf("%v errors, %v items skipped", e.errs.Len(), e.skipped)
}

// String returns all errors, one per line.
func (e *Error) String() string {
	return e.errs.Error()
}

func (e *Error) Unwrap() []error {
	return e.errs.WrappedErrors()
}
