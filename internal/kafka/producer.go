package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// FareDropEvent is published when a one-way fare's day-over-day price change
// crosses the configured drop threshold.
type FareDropEvent struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Date          string  `json:"date"`
	DateRetrieved string  `json:"date_retrieved"`
	FlightType    string  `json:"flight_type"`
	Price         float64 `json:"price"`
	PriceChange   float64 `json:"price_change"`
}

// Key partitions events by itinerary so per-itinerary order is preserved.
func (e FareDropEvent) Key() string {
	return fmt.Sprintf("%s-%s-%s", e.Origin, e.Destination, e.Date)
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
