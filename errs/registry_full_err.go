package errs

/*
	A error type for reach registry max pool limit
*/
type RegistryFullErr struct {
	msg string
}

func (e RegistryFullErr) Error() string {
	return e.msg
}

func NewRegistryFullErr(cause string) RegistryFullErr {
	return RegistryFullErr{
		msg: cause,
	}
}

func IsRegistryFullErr(e error) bool {
	_, ok := e.(RegistryFullErr)
	return ok
}
