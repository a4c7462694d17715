package errs

/*
	A error type for a pool that is at max size with no available connection
*/
type PoolExhaustedErr struct {
	msg string
}

func (e PoolExhaustedErr) Error() string {
	return e.msg
}

func NewPoolExhaustedErr(cause string) PoolExhaustedErr {
	return PoolExhaustedErr{
		msg: cause,
	}
}

func IsPoolExhaustedErr(e error) bool {
	_, ok := e.(PoolExhaustedErr)
	return ok
}
