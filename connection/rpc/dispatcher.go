/*
The rpc package is the request layer that sits on top of a transport Connection. Every
protocol line is a single JSON object: requests and notifications go out through the
Client, and the Dispatcher matches inbound responses to the requests waiting on them
and forwards everything else to the application.
*/
package rpc

import (
	"encoding/json"
	"fmt"

	"orbitrelay.dev/orbitlib/connection/pending"
	"orbitrelay.dev/orbitlib/connection/transporter"
	"orbitrelay.dev/orbitlib/logger"
)

type NotificationHandler func(app transporter.AppContext, notification Notification)

type Dispatcher struct {
	logger         *logger.Logger
	onNotification NotificationHandler
}

func NewDispatcher(logger *logger.Logger, onNotification NotificationHandler) *Dispatcher {
	return &Dispatcher{
		logger:         logger,
		onNotification: onNotification,
	}
}

func (d *Dispatcher) Dispatch(app transporter.AppContext, tracker *pending.Tracker, line string) {
	if err := d.dispatch(app, tracker, line); err != nil {
		d.logger.Error(err)
	}
}

func (d *Dispatcher) dispatch(app transporter.AppContext, tracker *pending.Tracker, line string) error {
	var message Message
	if err := json.Unmarshal([]byte(line), &message); err != nil {
		return fmt.Errorf("error unmarshalling protocol line: %s", line)
	}

	switch {

	// These messages answer a request we sent and complete whoever is waiting on it
	case message.isResponse():
		result := pending.Result{Value: message.Result}
		if message.Error != nil {
			result = pending.Result{Err: &RemoteError{Code: message.Error.Code, Message: message.Error.Message}}
		}

		// A response is only valuable as long as it's referring to an outstanding request
		if !tracker.Resolve(*message.Id, result) {
			return fmt.Errorf("received response for a request we are not waiting on: %d", *message.Id)
		}

	case message.isNotification():
		if d.onNotification != nil {
			d.onNotification(app, Notification{Method: message.Method, Params: message.Params})
		}

	default:
		d.logger.Debugf("Ignoring protocol line: %s", line)
	}

	return nil
}
