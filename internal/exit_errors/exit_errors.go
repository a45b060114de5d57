package exiterrors

import (
	"fmt"
)

const (
	ExitNormal      int = 0
	ExitErrored     int = 1
	ExitFailedTests int = 2
	ExitErrorReport int = 3
	ExitUnknown     int = 4
)

// Carries an exit code along with an error so the app can exit correctly
//
// Err may be nil when the code alone is the signal (an outcome rather than a failure)
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Wrap an error with an exit code
func ExitErrorWrap(code int, err error) error {
	return ExitError{Code: code, Err: err}
}
