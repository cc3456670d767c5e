package transporter

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed is returned by Send once the outbound queue has been torn down
var ErrConnectionClosed = errors.New("connection is closed")

// The ConfigError is used when the transport configuration is missing or malformed. It is
// reported before any socket activity and is never retried
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

func (e *ConfigError) Unwrap() error { return nil }

// The ConfigMismatchError is used when a transport is handed a configuration variant meant
// for a different transport
type ConfigMismatchError struct {
	Expected Kind
	Actual   Kind
}

func (e *ConfigMismatchError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("invalid transport config for %s transport: no config given", e.Expected)
	}
	return fmt.Sprintf("invalid transport config for %s transport: got %s", e.Expected, e.Actual)
}

func (e *ConfigMismatchError) Unwrap() error { return nil }

// The ConnectError is used when the socket handshake fails
type ConnectError struct {
	Url      string
	InnerErr error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to Orbit relay at %s: %s", e.Url, e.InnerErr)
}

func (e *ConnectError) Unwrap() error { return e.InnerErr }

// The DisconnectedError completes every request that was still waiting for a reply when
// the connection was lost
type DisconnectedError struct{}

func (e *DisconnectedError) Error() string { return "remote backend disconnected" }

func (e *DisconnectedError) Unwrap() error { return nil }
