package transporter

import (
	"orbitrelay.dev/orbitlib/connection/pending"
)

// Lifecycle reports when the goroutines serving a connection have all returned.
// A *tomb.Tomb satisfies it.
type Lifecycle interface {
	Dead() <-chan struct{}
	Err() error
}

// Connection is the handle a caller gets back from a successful Connect. The pumps
// serving it share its State and Outbox but never hold the handle itself.
type Connection struct {
	id        string
	state     *State
	outbox    *Outbox
	lifecycle Lifecycle
}

func NewConnection(id string, state *State, outbox *Outbox, lifecycle Lifecycle) *Connection {
	return &Connection{
		id:        id,
		state:     state,
		outbox:    outbox,
		lifecycle: lifecycle,
	}
}

func (c *Connection) Id() string {
	return c.id
}

// Send queues a message for delivery. It never blocks and only fails once the
// connection has been torn down.
func (c *Connection) Send(message string) error {
	return c.outbox.Push(message)
}

func (c *Connection) IsConnected() bool {
	return c.state.Connected()
}

func (c *Connection) Pending() *pending.Tracker {
	return c.state.Pending()
}

// Close stops accepting new messages. Whatever is already queued is still written
// before the socket is shut down.
func (c *Connection) Close() {
	c.outbox.Close()
}

func (c *Connection) Done() <-chan struct{} {
	return c.lifecycle.Dead()
}

func (c *Connection) Err() error {
	return c.lifecycle.Err()
}
