package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ec-storefront/internal/logger"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

// Reader is the subset of *kafka.Reader the consumer uses
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Fetch retry delays; the delay doubles per consecutive failure
const (
	minFetchBackoff = 100 * time.Millisecond
	maxFetchBackoff = 5 * time.Second
)

type Consumer struct {
	reader     Reader
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	}))
}

func NewConsumerWithReader(reader Reader) *Consumer {
	return &Consumer{reader: reader, minBackoff: minFetchBackoff, maxBackoff: maxFetchBackoff}
}

// Consume blocks until ctx is done. Each message is committed after the
// handler returns. Handler failures are logged and still committed, so a
// poison event cannot stall the projection. Fetch failures back off
// exponentially until a fetch succeeds.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	log := logger.Component("kafka")
	backoff := c.minBackoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Dur("retry_in", backoff).Msg("fetch message")
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			log.Error().Err(err).
				Str("key", string(msg.Key)).
				Str("event_type", header(msg, HeaderEventType)).
				Int64("offset", msg.Offset).
				Msg("handle message")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("commit message")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
