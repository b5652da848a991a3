package apierr

import (
	"errors"
	"net/http"
)

// Error carries the HTTP status and stable error code a service chose for a
// failure. Err is what the client sees as the message.
type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	case e.Status != 0:
		return http.StatusText(e.Status)
	default:
		return "api error"
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// From returns the outermost *Error in err's chain. A zero Status is reported
// as 500.
func From(err error) (*Error, bool) {
	var ae *Error
	if !errors.As(err, &ae) || ae == nil {
		return nil, false
	}
	if ae.Status == 0 {
		return &Error{Status: http.StatusInternalServerError, Code: ae.Code, Err: ae.Err}, true
	}
	return ae, true
}
