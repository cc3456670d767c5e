package transporter

import (
	"sync"
)

// Outbox is an unbounded FIFO queue of outbound messages with any number of
// producers and a single consumer. Push never blocks.
type Outbox struct {
	lock   sync.Mutex
	items  []string
	closed bool

	// holds at most one wake-up for the consumer
	ready chan struct{}
}

func NewOutbox() *Outbox {
	return &Outbox{
		ready: make(chan struct{}, 1),
	}
}

func (o *Outbox) Push(message string) error {
	o.lock.Lock()
	if o.closed {
		o.lock.Unlock()
		return ErrConnectionClosed
	}
	o.items = append(o.items, message)
	o.lock.Unlock()

	o.wake()
	return nil
}

// Next blocks until a message is available and returns it. Once the outbox is closed
// and everything queued before the close has been handed out, it returns false.
func (o *Outbox) Next() (string, bool) {
	for {
		o.lock.Lock()
		if len(o.items) > 0 {
			message := o.items[0]
			o.items[0] = ""
			o.items = o.items[1:]
			o.lock.Unlock()
			return message, true
		} else if o.closed {
			o.lock.Unlock()
			return "", false
		}
		o.lock.Unlock()

		<-o.ready
	}
}

// Close stops the outbox from accepting messages. It is safe to call more than once.
func (o *Outbox) Close() {
	o.lock.Lock()
	o.closed = true
	o.lock.Unlock()

	o.wake()
}

func (o *Outbox) Closed() bool {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.closed
}

func (o *Outbox) Len() int {
	o.lock.Lock()
	defer o.lock.Unlock()

	return len(o.items)
}

func (o *Outbox) wake() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}
