package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"orbitrelay.dev/orbitlib/connection/pending"
	"orbitrelay.dev/orbitlib/connection/transporter"
	"orbitrelay.dev/orbitlib/logger"
)

// these are vars so tests can shorten them
var (
	maxBackoffInterval       = time.Minute
	maximumReconnectWaitTime = 15 * time.Minute
)

var errLinkLost = errors.New("relay dropped the connection")

// linePrinter writes every inbound protocol line to stdout
type linePrinter struct {
	lock sync.Mutex
	out  io.Writer
}

func (p *linePrinter) Dispatch(_ transporter.AppContext, _ *pending.Tracker, line string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	fmt.Fprintln(p.out, line)
}

type relay struct {
	logger    *logger.Logger
	transport transporter.Transport
	config    transporter.Config
	reconnect bool
}

func (r *relay) run(ctx context.Context, lines <-chan string) error {
	for {
		conn, err := r.connect(ctx)
		if err != nil && ctx.Err() != nil {
			return &InterruptedError{}
		} else if err != nil {
			return err
		}

		err = r.pipe(ctx, conn, lines)
		if errors.Is(err, errLinkLost) && r.reconnect && ctx.Err() == nil {
			r.logger.Infof("Lost connection %s, reconnecting", conn.Id())
			continue
		}
		return err
	}
}

func (r *relay) connect(ctx context.Context) (*transporter.Connection, error) {
	if !r.reconnect {
		return r.transport.Connect(ctx, nil, r.config)
	}

	backoffParams := backoff.NewExponentialBackOff()
	backoffParams.MaxElapsedTime = maximumReconnectWaitTime
	backoffParams.MaxInterval = maxBackoffInterval

	ticker := backoff.NewTicker(backoffParams)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case _, ok := <-ticker.C:
			if !ok {
				return nil, fmt.Errorf("failed to connect after %s", backoffParams.MaxElapsedTime)
			}

			conn, err := r.transport.Connect(ctx, nil, r.config)
			if err == nil {
				return conn, nil
			}

			// only dial failures are worth retrying, a bad configuration stays bad
			var connectErr *transporter.ConnectError
			if !errors.As(err, &connectErr) {
				return nil, err
			}

			r.logger.Infof("Retrying in %s because we failed to connect: %s", backoffParams.NextBackOff().Round(time.Millisecond), err)
		}
	}
}

// pipe forwards stdin lines until stdin ends, the context is cancelled or the relay
// goes away. Only a vanished relay reports errLinkLost.
func (r *relay) pipe(ctx context.Context, conn *transporter.Connection, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Interrupted, closing connection")
			r.shutdown(conn)
			return &InterruptedError{}
		case <-conn.Done():
			if err := conn.Err(); err != nil {
				return fmt.Errorf("%w: %s", errLinkLost, err)
			}
			return errLinkLost
		case line, ok := <-lines:
			if !ok {
				r.shutdown(conn)
				return nil
			}

			if err := conn.Send(line); errors.Is(err, transporter.ErrConnectionClosed) {
				// the reader tore the connection down, Done is about to fire
				r.logger.Warnf("Dropping input, connection %s is closed", conn.Id())
				continue
			} else if err != nil {
				return err
			}
		}
	}
}

func (r *relay) shutdown(conn *transporter.Connection) {
	conn.Close()
	<-conn.Done()
}
