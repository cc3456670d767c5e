package transporter

import (
	"context"

	"orbitrelay.dev/orbitlib/connection/pending"
)

// A Transport turns a configuration into a live, line-oriented Connection
type Transport interface {
	Connect(ctx context.Context, app AppContext, config Config) (*Connection, error)
}

// AppContext is handed to the Dispatcher untouched; transports never look inside it
type AppContext any

// A Dispatcher consumes inbound protocol lines. It is called sequentially, once per
// line, in the order lines arrive, and must not block indefinitely.
type Dispatcher interface {
	Dispatch(app AppContext, pending *pending.Tracker, line string)
}

type DispatcherFunc func(app AppContext, pending *pending.Tracker, line string)

func (f DispatcherFunc) Dispatch(app AppContext, pending *pending.Tracker, line string) {
	f(app, pending, line)
}

// Transport Kind enum
type Kind string

const (
	OrbitWs Kind = "orbit-ws"
	Tcp     Kind = "tcp"
)

// Config is the tagged transport configuration. Each transport accepts exactly
// one variant and rejects every other one.
type Config interface {
	Kind() Kind
}

type OrbitWsConfig struct {
	WsUrl      string `yaml:"wsUrl"`
	Token      string `yaml:"token"`
	RunnerName string `yaml:"runnerName"`
}

func (OrbitWsConfig) Kind() Kind { return OrbitWs }

type TcpConfig struct {
	Host  string `yaml:"host"`
	Token string `yaml:"token"`
}

func (TcpConfig) Kind() Kind { return Tcp }
