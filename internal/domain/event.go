package domain

import (
	"context"
	"time"
)

type InstrumentEvent struct {
	EventID        string           `json:"eventId"`
	InstrumentID   uint64           `json:"instrumentId"`
	Kind           InstrumentKind   `json:"kind"`
	ExternalRef    string           `json:"externalRef"`
	From           InstrumentStatus `json:"from"`
	To             InstrumentStatus `json:"to"`
	DeclaredAmount int64            `json:"declaredAmount"`
	ActualAmount   *int64           `json:"actualAmount,omitempty"`
	NetAmount      *int64           `json:"netAmount,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

type EventPublisher interface {
	PublishInstrumentEvent(ctx context.Context, e InstrumentEvent) error
}

// SuccessLog is the append-only audit trail of settled instruments.
type SuccessLog interface {
	Append(in *Instrument, callbackStatus string) error
}

// CallbackSender delivers a merchant notification.
type CallbackSender interface {
	Send(ctx context.Context, url string, payload []byte) error
}

// Message is one keyed record for the event stream.
type Message struct {
	Key   []byte
	Value []byte
}

// PublisherPort writes raw messages to a topic.
type PublisherPort interface {
	Publish(topic string, msgs ...Message) error
}
