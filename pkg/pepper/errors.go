package pepper

import "fmt"

// NetworkError wraps a transport-level failure: the backend produced no
// response at all. The UI surfaces it as a generic connectivity message.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx backend response. Message carries the backend's
// "error" field when present, otherwise a generic message; it is shown to
// the user verbatim when present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server: %d: %s", e.Status, e.Message)
}
