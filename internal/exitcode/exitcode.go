// Package exitcode holds the process exit statuses shared by every acmd command.  Scripts depend
// on the numeric values, so don't renumber them.
package exitcode

import (
	"errors"
	"fmt"
)

type Status int

const (
	OK          Status = 0
	ServerError Status = 1
	UserError   Status = 2
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case ServerError:
		return "SERVER_ERROR"
	case UserError:
		return "USER_ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if a == UserError || b == UserError {
		return UserError
	}
	if a == ServerError || b == ServerError {
		return ServerError
	}
	return OK
}

// InvocationError is a bad invocation: unknown action, missing argument.  Nothing has been
// attempted yet when one is returned.
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string { return e.Message }

func Invocationf(format string, a ...any) error {
	return &InvocationError{Message: fmt.Sprintf(format, a...)}
}

// StatusError carries an aggregate status out of a command that has already reported its own
// per-item errors.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("finished with status %s", e.Status)
}

// Classifier maps domain errors onto a status.  It returns false when it doesn't recognise err.
type Classifier func(err error) (Status, bool)

// FromError picks the exit status for the error a command returned.  Errors nobody recognises
// are treated like an uncaught failure and map to ServerError.
func FromError(err error, classifiers ...Classifier) Status {
	if err == nil {
		return OK
	}

	var invocation *InvocationError
	if errors.As(err, &invocation) {
		return UserError
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Status
	}

	for _, c := range classifiers {
		if s, ok := c(err); ok {
			return s
		}
	}

	return ServerError
}
