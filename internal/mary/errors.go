package mary

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse is returned when the server closed the stream without sending any audio
	ErrEmptyResponse = errors.New("no audio data received from MARY server")

	// ErrEmptyText is returned for a request without input text
	ErrEmptyText = errors.New("input text cannot be empty")
)

// ConnectError reports that the MARY server could not be reached
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect to MARY server at %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ServerError is a non-200 reply from the HTTP interface
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("MARY server returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("MARY server returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsConnectError reports whether err (or anything it wraps) is a ConnectError
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
