package cli

import "fmt"

// ExitError carries a process exit code out of a command. Err may be nil
// when the outcome has already been reported (e.g. changes needed).
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a fatal (exit 2) failure.
func usageError(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// exitCode returns nil for 0 and an *ExitError otherwise.
func exitCode(code int, err error) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}
