package errs

/*
	A error type for detaching a connection the pool no longer tracks
*/
type DetachErr struct {
	msg string
}

func (e DetachErr) Error() string {
	return e.msg
}

func NewDetachErr(cause string) DetachErr {
	return DetachErr{
		msg: cause,
	}
}

func IsDetachErr(e error) bool {
	_, ok := e.(DetachErr)
	return ok
}
