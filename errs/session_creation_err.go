package errs

import "fmt"

/*
	A error type for a session factory failure while filling or growing
	the pool, wrapping the originating cause
*/
type SessionCreationErr struct {
	msg   string
	cause error
}

func (e SessionCreationErr) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause)
}

func (e SessionCreationErr) Unwrap() error {
	return e.cause
}

func NewSessionCreationErr(msg string, cause error) SessionCreationErr {
	return SessionCreationErr{
		msg:   msg,
		cause: cause,
	}
}

func IsSessionCreationErr(e error) bool {
	_, ok := e.(SessionCreationErr)
	return ok
}
