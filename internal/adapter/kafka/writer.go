// Package kafka publishes triage cards to a Kafka topic for downstream
// consumers such as notification services.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hurricane-triage/internal/domain"
)

// Writer produces card messages to a Kafka topic.
// It implements pipeline.CardPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured card topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCards serializes and publishes cards in a single WriteMessages call.
func (w *Writer) PublishCards(ctx context.Context, cardList []domain.Card) error {
	if len(cardList) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(cardList))
	for i := range cardList {
		msg, err := serializeToMessage(cardList[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Card into a Kafka message keyed by card ID so
// replays of the same card land on the same partition.
func serializeToMessage(card domain.Card) (kafkago.Message, error) {
	data, err := json.Marshal(card)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize card: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(card.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(card.Mode)},
			{Key: "category", Value: []byte(card.Category)},
			{Key: "published_at", Value: []byte(card.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
