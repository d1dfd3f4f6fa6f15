package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}
}

func (k *KafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  time.Now(),
			Topic: topic,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, km...)
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// EventPublisher turns instrument transitions into messages keyed by externalRef.
// Writes happen in the background and failures are only logged; Flush waits for them.
type EventPublisher struct {
	port  domain.PublisherPort
	topic string
	async bool
	wg    sync.WaitGroup
}

func NewEventPublisher(port domain.PublisherPort, topic string) *EventPublisher {
	return &EventPublisher{port: port, topic: topic, async: true}
}

func (p *EventPublisher) PublishInstrumentEvent(ctx context.Context, e domain.InstrumentEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	v, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal instrument event: %w", err)
	}
	msg := domain.Message{Key: []byte(e.ExternalRef), Value: v}

	send := func() error {
		if err := p.port.Publish(p.topic, msg); err != nil {
			slog.Warn("failed to publish instrument event", "ref", e.ExternalRef, "to", e.To, "error", err)
			return err
		}
		return nil
	}
	if p.async {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = send()
		}()
		return nil
	}
	return send()
}

// Flush blocks until in-flight writes finish or ctx expires.
func (p *EventPublisher) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush instrument events: %w", ctx.Err())
	}
}

// NopEventPublisher is used when no brokers are configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishInstrumentEvent(context.Context, domain.InstrumentEvent) error {
	return nil
}
