package errs

/*
	A error type for registering a pool name that is already taken
*/
type DuplicatePoolErr struct {
	msg string
}

func (e DuplicatePoolErr) Error() string {
	return e.msg
}

func NewDuplicatePoolErr(cause string) DuplicatePoolErr {
	return DuplicatePoolErr{
		msg: cause,
	}
}

func IsDuplicatePoolErr(e error) bool {
	_, ok := e.(DuplicatePoolErr)
	return ok
}
