// Package kafka publishes huddle meeting events to a Kafka topic. Messages are
// keyed by meeting id so one meeting's events stay ordered on one partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/huddle/pkg/eventstream"
)

const defaultWriteTimeout = 10 * time.Second

// Config is the configuration for a Kafka publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses.
	Brokers []string

	// Topic receives every event.
	Topic string

	// WriteTimeout bounds a single write (defaults to 10s).
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes meeting events with a kafka-go Writer.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	return newPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}), nil
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Publish marshals event and writes it keyed by meeting id.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MeetingEvent) error {
	if event == nil {
		return eventstream.ErrNilMeetingEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.MeetingID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(strconv.Itoa(event.SchemaVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
