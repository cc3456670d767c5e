package rpc

import "encoding/json"

// Request is written for Call and Notify. Notifications carry no id.
type Request struct {
	Id     *uint64 `json:"id,omitempty"`
	Method string  `json:"method"`
	Params any     `json:"params,omitempty"`
}

// Message is any inbound line. The pointers are so the fields can be nil because
// they're not always there.
type Message struct {
	Id     *uint64         `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *ErrorMessage   `json:"error"`
}

type ErrorMessage struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// Notification is a server-initiated message that answers no request
type Notification struct {
	Method string
	Params json.RawMessage
}

func (m *Message) isResponse() bool {
	return m.Id != nil && m.Method == ""
}

func (m *Message) isNotification() bool {
	return m.Id == nil && m.Method != ""
}
