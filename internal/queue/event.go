// Package queue carries session changes between server instances over
// RabbitMQ. Every instance publishes to one fanout exchange and consumes
// from its own exclusive queue bound to it.
package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/westfest/internal/model"
)

// SessionExchange is the fanout exchange session changes are published on.
const SessionExchange = "westfest.session.changed"

// SessionChangedEvent is published whenever a device signs in, signs out
// or has its profile updated. Origin identifies the publishing instance so
// it can skip its own messages.
type SessionChangedEvent struct {
	Origin        string        `json:"origin"`
	Device        string        `json:"device"`
	Authenticated bool          `json:"authenticated"`
	Profile       model.Profile `json:"profile"`
	ChangedAt     string        `json:"changed_at"`
}

// Session rebuilds the session snapshot carried by the event.
func (e SessionChangedEvent) Session() model.Session {
	if !e.Authenticated {
		return model.SignedOut
	}
	return model.Session{Authenticated: true, Profile: e.Profile}
}

// DeclareExchange declares the durable fanout exchange (idempotent).
func DeclareExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		SessionExchange, // name
		amqp.ExchangeFanout,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}
