package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"orbitrelay.dev/orbitlib/connection/transporter"
)

type Client struct {
	conn *transporter.Connection
}

func NewClient(conn *transporter.Connection) *Client {
	return &Client{conn: conn}
}

// Call sends a request and waits for its response. It returns early if ctx is done
// or the connection is lost before the response arrives.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !c.conn.IsConnected() {
		return nil, &transporter.DisconnectedError{}
	}

	tracker := c.conn.Pending()
	id, completion := tracker.Track()

	line, err := json.Marshal(Request{Id: &id, Method: method, Params: params})
	if err != nil {
		tracker.Forget(id)
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	// the connection may have dropped between the first check and tracking, in which
	// case nothing will ever complete this request
	if !c.conn.IsConnected() {
		tracker.Forget(id)
		return nil, &transporter.DisconnectedError{}
	}

	if err := c.conn.Send(string(line)); err != nil {
		tracker.Forget(id)
		return nil, fmt.Errorf("failed to send %s request: %w", method, err)
	}

	select {
	case result := <-completion:
		if result.Err != nil {
			return nil, fmt.Errorf("%s request failed: %w", method, result.Err)
		}
		return result.Value, nil
	case <-ctx.Done():
		tracker.Forget(id)
		return nil, ctx.Err()
	}
}

// Notify sends a request that expects no response
func (c *Client) Notify(method string, params any) error {
	line, err := json.Marshal(Request{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s notification: %w", method, err)
	}

	return c.conn.Send(string(line))
}
