package errs

import "fmt"

/*
	A error type for a retire whose underlying session close failed;
	the connection is removed from pool bookkeeping regardless
*/
type RetireErr struct {
	msg   string
	cause error
}

func (e RetireErr) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause)
}

func (e RetireErr) Unwrap() error {
	return e.cause
}

func NewRetireErr(msg string, cause error) RetireErr {
	return RetireErr{
		msg:   msg,
		cause: cause,
	}
}

func IsRetireErr(e error) bool {
	_, ok := e.(RetireErr)
	return ok
}
