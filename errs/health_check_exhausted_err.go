package errs

/*
	A error type for an attach that retired every probe-failing candidate
	until the retry ceiling was hit
*/
type HealthCheckExhaustedErr struct {
	msg string
}

func (e HealthCheckExhaustedErr) Error() string {
	return e.msg
}

func NewHealthCheckExhaustedErr(cause string) HealthCheckExhaustedErr {
	return HealthCheckExhaustedErr{
		msg: cause,
	}
}

func IsHealthCheckExhaustedErr(e error) bool {
	_, ok := e.(HealthCheckExhaustedErr)
	return ok
}
