package server

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"orbitrelay.dev/orbitlib/logger"
)

// A Responder decides what the server writes back for each message it receives.
// Returning nil writes nothing.
type Responder func(message []byte) []byte

// Echo writes every message straight back
func Echo(message []byte) []byte {
	return message
}

// WebsocketServer is a loopback relay for tests. It serves one client connection at a
// time; a newer connection replaces the previous one.
type WebsocketServer struct {
	logger    *logger.Logger
	listener  net.Listener
	responder Responder

	// gorilla allows a single concurrent writer
	connLock sync.Mutex
	conn     *websocket.Conn

	Addr          string
	ReceivedBytes chan []byte
	Connections   chan struct{}
	Pongs         chan string
}

// Adapted from: https://golangdocs.com/golang-gorilla-websockets
func NewWebsocketServer(logger *logger.Logger, responder Responder) *WebsocketServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logger.Errorf("failed to setup listener: %s", err)
		return nil
	}

	server := &WebsocketServer{
		logger:        logger,
		listener:      listener,
		responder:     responder,
		Addr:          fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port),
		ReceivedBytes: make(chan []byte, 100),
		Connections:   make(chan struct{}, 10),
		Pongs:         make(chan string, 10),
	}

	go func() {
		http.Serve(server.listener, server)
	}()

	return server
}

func (w *WebsocketServer) Shutdown() {
	w.listener.Close()
	w.ForceClose()
}

func (w *WebsocketServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		w.logger.Errorf("failed to upgrade websocket: %s", err)
		return
	}
	defer conn.Close()

	conn.SetPongHandler(func(data string) error {
		select {
		case w.Pongs <- data:
		default:
		}
		return nil
	})

	w.connLock.Lock()
	w.conn = conn
	w.connLock.Unlock()
	w.Connections <- struct{}{}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			w.logger.Debugf("test server stopped reading: %s", err)
			return
		}

		w.ReceivedBytes <- message

		if w.responder == nil {
			continue
		} else if reply := w.responder(message); reply != nil {
			if err := w.write(conn, messageType, reply); err != nil {
				w.logger.Errorf("failed to write to websocket connection: %s", err)
				return
			}
		}
	}
}

func (w *WebsocketServer) WriteText(message string) error {
	return w.write(w.current(), websocket.TextMessage, []byte(message))
}

func (w *WebsocketServer) WriteBinary(message []byte) error {
	return w.write(w.current(), websocket.BinaryMessage, message)
}

// Close performs an elegant close from the server side
func (w *WebsocketServer) Close() error {
	conn := w.current()
	if conn == nil {
		return fmt.Errorf("no client is connected")
	}

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
}

// Ping sends a ping control frame; the client's pong shows up on Pongs
func (w *WebsocketServer) Ping(data string) error {
	conn := w.current()
	if conn == nil {
		return fmt.Errorf("no client is connected")
	}

	return conn.WriteControl(websocket.PingMessage, []byte(data), time.Now().Add(time.Second))
}

// ForceClose drops the socket without a close handshake
func (w *WebsocketServer) ForceClose() {
	if conn := w.current(); conn != nil {
		conn.Close()
	}
}

func (w *WebsocketServer) current() *websocket.Conn {
	w.connLock.Lock()
	defer w.connLock.Unlock()

	return w.conn
}

func (w *WebsocketServer) write(conn *websocket.Conn, messageType int, message []byte) error {
	if conn == nil {
		return fmt.Errorf("no client is connected")
	}

	w.connLock.Lock()
	defer w.connLock.Unlock()

	return conn.WriteMessage(messageType, message)
}
