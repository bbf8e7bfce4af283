// Package apierr carries service-layer failures with their intended
// HTTP shape. AnalysisService wraps lookups like a missing lecture or
// thread in an Error so the handlers can map them to a status and a
// stable error code without string matching.
package apierr

import "fmt"

// Error pairs a failure with the status and code its HTTP response
// should carry. Status and Code feed the response envelope; Err is the
// underlying cause and stays out of client payloads.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
