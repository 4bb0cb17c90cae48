// Package apierr defines the error taxonomy shared by the external
// gateways: transport failures (network, timeout, non-2xx) and data
// failures (malformed or incomplete payloads).
package apierr

import (
	"fmt"
	"net/http"
)

type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func NewTransportError(op string, statusCode int, err error) *TransportError {
	return &TransportError{
		Op:         op,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
	}
	return e.Op
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type DataError struct {
	Op  string
	Err error
}

func NewDataError(op string, err error) *DataError {
	return &DataError{Op: op, Err: err}
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
	}
	return e.Op
}

func (e *DataError) Unwrap() error {
	return e.Err
}
