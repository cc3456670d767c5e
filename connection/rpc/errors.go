package rpc

import "fmt"

// The RemoteError is used when the remote backend answered a request with an error
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote backend error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remote backend error: %s", e.Message)
}

func (e *RemoteError) Unwrap() error { return nil }
