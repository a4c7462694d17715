package errs

import "strings"

/*
	A error type for bulk operations that keep going past individual
	failures and report them all at the end
*/
type AggregateErr struct {
	errors []error
}

func (e AggregateErr) Error() string {
	msgs := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Errors returns the individual failures in the order they occurred.
func (e AggregateErr) Errors() []error {
	return e.errors
}

func NewAggregateErr(errors []error) AggregateErr {
	return AggregateErr{
		errors: errors,
	}
}

func IsAggregateErr(e error) bool {
	_, ok := e.(AggregateErr)
	return ok
}
