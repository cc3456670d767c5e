/*
The websocket package binds a raw websocket to the line-oriented transport contract. In
terms of the overall connection layer architecture, this package is at the lowest layer:
it ferries text across the socket and hands every protocol line it receives to the
dispatcher, leaving all parsing to the layers above.

Each connection is served by two goroutines. The writer drains the outbound queue onto
the socket; the reader splits inbound frames into protocol lines and dispatches them in
order. They share nothing but the connection State and the Outbox, and either of them
failing marks the connection disconnected, which fails every request still waiting for
a reply.
*/
package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"gopkg.in/tomb.v2"

	"orbitrelay.dev/orbitlib/connection/pending"
	"orbitrelay.dev/orbitlib/connection/transporter"
	"orbitrelay.dev/orbitlib/logger"
)

// How long a local close waits for the peer to acknowledge before dropping the socket
const closeGracePeriod = time.Second

type Websocket struct {
	logger     *logger.Logger
	dispatcher transporter.Dispatcher
}

func New(logger *logger.Logger, dispatcher transporter.Dispatcher) *Websocket {
	return &Websocket{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

func (w *Websocket) Connect(ctx context.Context, app transporter.AppContext, config transporter.Config) (*transporter.Connection, error) {
	var wsConfig transporter.OrbitWsConfig
	switch c := config.(type) {
	case transporter.OrbitWsConfig:
		wsConfig = c
	case *transporter.OrbitWsConfig:
		if c == nil {
			return nil, &transporter.ConfigMismatchError{Expected: transporter.OrbitWs}
		}
		wsConfig = *c
	case *transporter.TcpConfig:
		// Kind has a value receiver, so a nil pointer cannot be asked for it
		return nil, &transporter.ConfigMismatchError{Expected: transporter.OrbitWs, Actual: transporter.Tcp}
	case nil:
		return nil, &transporter.ConfigMismatchError{Expected: transporter.OrbitWs}
	default:
		return nil, &transporter.ConfigMismatchError{Expected: transporter.OrbitWs, Actual: c.Kind()}
	}

	wsUrl, err := NormalizeUrl(wsConfig.WsUrl)
	if err != nil {
		return nil, fmt.Errorf("%s transport: %w", transporter.OrbitWs, err)
	}

	client, _, err := gorilla.DefaultDialer.DialContext(ctx, wsUrl, nil)
	if err != nil {
		return nil, &transporter.ConnectError{Url: wsUrl, InnerErr: err}
	}

	id := uuid.New().String()
	connLogger := w.logger.GetConnectionLogger(id)
	if wsConfig.RunnerName != "" {
		connLogger = connLogger.With("runner", wsConfig.RunnerName)
	}
	connLogger.Infof("Connected to Orbit relay at %s", wsUrl)

	state := transporter.NewState(pending.NewTracker())
	l := &link{
		logger:     connLogger,
		client:     client,
		state:      state,
		outbox:     transporter.NewOutbox(),
		dispatcher: w.dispatcher,
		app:        app,
		readerDone: make(chan struct{}),
	}

	l.tmb.Go(l.send)
	l.tmb.Go(l.receive)

	return transporter.NewConnection(id, state, l.outbox, &l.tmb), nil
}

// link holds everything the two pumps of a single connection share
type link struct {
	tmb    tomb.Tomb
	logger *logger.Logger
	client *gorilla.Conn

	state  *transporter.State
	outbox *transporter.Outbox

	dispatcher transporter.Dispatcher
	app        transporter.AppContext

	// closed when the reader has stopped
	readerDone chan struct{}
}

func (l *link) send() error {
	defer l.logger.Debug("Websocket writer stopped")

	for {
		message, ok := l.outbox.Next()
		if !ok {
			l.shutdown()
			return nil
		}

		if err := l.client.WriteMessage(gorilla.TextMessage, []byte(message)); errors.Is(err, gorilla.ErrCloseSent) || (err != nil && !l.state.Connected()) {
			// the close handshake is underway or the reader already stopped, so
			// the reader owns the socket and reports how the connection ended
			l.logger.Debugf("Dropping %d queued messages, websocket is closing: %s", l.outbox.Len()+1, err)
			l.state.MarkDisconnected()
			l.outbox.Close()
			return nil
		} else if err != nil {
			l.logger.Errorf("failed to write to websocket: %s", err)
			if l.state.MarkDisconnected() {
				l.logger.Info("Websocket marked disconnected after a failed write")
			}

			l.outbox.Close()
			l.client.Close()
			return err
		}
	}
}

// shutdown says goodbye to the peer once the outbox has been closed, then waits
// briefly for the reader to see the peer's reply before dropping the socket
func (l *link) shutdown() {
	closeMessage := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")
	if err := l.client.WriteControl(gorilla.CloseMessage, closeMessage, time.Now().Add(closeGracePeriod)); err != nil {
		l.logger.Debugf("could not send close message: %s", err)
	}

	select {
	case <-l.readerDone:
	case <-time.After(closeGracePeriod):
		l.logger.Infof("Peer did not acknowledge close in %s", closeGracePeriod)
	}

	l.client.Close()
}

func (l *link) receive() error {
	defer close(l.readerDone)
	l.logger.Info("Websocket connection started")

	err := l.readFrames()

	if l.state.MarkDisconnected() {
		l.logger.Info("Websocket marked disconnected")
	}
	l.client.Close()
	l.outbox.Close()

	return err
}

func (l *link) readFrames() error {
	for {
		messageType, rawMessage, err := l.client.ReadMessage()
		if err != nil {
			if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				l.logger.Infof("Websocket connection closed normally: %s", err)
				return nil
			} else if l.outbox.Closed() {
				// we closed the socket ourselves
				return nil
			}

			l.logger.Errorf("failed to read from websocket: %s", err)
			return err
		}

		switch messageType {
		case gorilla.TextMessage:
			l.dispatchPayload(string(rawMessage))
		case gorilla.BinaryMessage:
			if !utf8.Valid(rawMessage) {
				l.logger.Debugf("dropping %d byte binary frame that is not valid UTF-8", len(rawMessage))
				continue
			}
			l.dispatchPayload(string(rawMessage))
		}
	}
}

func (l *link) dispatchPayload(payload string) {
	for line := range ProtocolLines(payload) {
		l.dispatcher.Dispatch(l.app, l.state.Pending(), line)
	}
}
