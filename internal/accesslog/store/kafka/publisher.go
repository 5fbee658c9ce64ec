// Package kafka publishes access log records to a topic instead of writing
// them to the record store directly. A consumer (see accesslog/consumer)
// drains the topic into the store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"dailybit/internal/accesslog/models"
	id "dailybit/pkg/domain"
)

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher implements the access log Store over a Kafka topic.
type Publisher struct {
	producer Producer
	topic    string
}

// New returns a Publisher that writes records to topic.
func New(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Append produces rec keyed by its log ID and waits for the broker ack.
func (p *Publisher) Append(ctx context.Context, rec models.Record) error {
	value, err := Encode(rec)
	if err != nil {
		return err
	}
	r := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(rec.ID.String()),
		Value:     value,
		Timestamp: rec.CreatedAt,
	}
	if err := p.producer.ProduceSync(ctx, r).FirstErr(); err != nil {
		return fmt.Errorf("produce access log record: %w", err)
	}
	return nil
}

type message struct {
	ID           id.LogID          `json:"id"`
	Endpoint     string            `json:"endpoint"`
	Method       string            `json:"method"`
	UserAgent    string            `json:"user_agent"`
	AgentName    *string           `json:"agent_name,omitempty"`
	TokenOwnerID *id.AccountID     `json:"token_owner_id,omitempty"`
	QueryParams  map[string]string `json:"query_params,omitempty"`
	StatusCode   int               `json:"status_code"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Encode renders rec as the topic's JSON payload.
func Encode(rec models.Record) ([]byte, error) {
	b, err := json.Marshal(message(rec))
	if err != nil {
		return nil, fmt.Errorf("encode access log record: %w", err)
	}
	return b, nil
}

// Decode parses a topic payload. Records without an ID are rejected.
func Decode(b []byte) (models.Record, error) {
	var m message
	if err := json.Unmarshal(b, &m); err != nil {
		return models.Record{}, fmt.Errorf("decode access log record: %w", err)
	}
	if m.ID.IsNil() {
		return models.Record{}, fmt.Errorf("decode access log record: missing id")
	}
	return models.Record(m), nil
}
