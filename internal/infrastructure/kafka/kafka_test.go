package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/infrastructure/store"
)

// fakeReader serves queued messages, then blocks until ctx is done.
// fetchErr fails the next fetch; brokenErr fails every fetch.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	fetchErr  error
	brokenErr error
	fetches   int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	r.fetches++
	if r.brokenErr != nil {
		err := r.brokenErr
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if r.fetchErr != nil {
		err := r.fetchErr
		r.fetchErr = nil
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

// ============================================
// Producer Tests
// ============================================

func TestNewMessage_StoreEventHeaders(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	event := store.Event{ID: "e1", AggregateID: "cart-u1", AggregateType: "Cart", EventType: "ItemAddedToCart", Timestamp: ts, Version: 1}

	msg, err := newMessage("cart-u1", event)

	require.NoError(t, err)
	assert.Equal(t, "cart-u1", string(msg.Key))
	assert.Equal(t, "ItemAddedToCart", header(msg, HeaderEventType))
	assert.Equal(t, "Cart", header(msg, HeaderAggregateType))
	assert.Equal(t, ts, msg.Time)

	var decoded store.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "e1", decoded.ID)
}

func TestNewMessage_PlainValue(t *testing.T) {
	msg, err := newMessage("k", map[string]int{"a": 1})

	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.JSONEq(t, `{"a":1}`, string(msg.Value))

	_, err = newMessage("k", make(chan int))
	assert.Error(t, err)
}

// ============================================
// Consumer Tests
// ============================================

func TestConsumer_CommitsAfterHandling(t *testing.T) {
	reader := &fakeReader{
		queue: []kafka.Message{
			{Key: []byte("a"), Value: []byte("1"), Offset: 10},
			{Key: []byte("b"), Value: []byte("poison"), Offset: 11},
			{Key: []byte("c"), Value: []byte("3"), Offset: 12},
		},
		fetchErr: errors.New("broker hiccup"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var handled []string
	done := make(chan error)
	go func() {
		done <- NewConsumerWithReader(reader).Consume(ctx, func(ctx context.Context, key, value []byte) error {
			mu.Lock()
			handled = append(handled, string(key))
			mu.Unlock()
			if string(value) == "poison" {
				return errors.New("bad event")
			}
			return nil
		})
	}()

	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []int64{10, 11, 12}, reader.commits())
	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, handled)
	mu.Unlock()
}

func TestConsumer_BacksOffOnPersistentFetchErrors(t *testing.T) {
	reader := &fakeReader{brokenErr: errors.New("broker unreachable")}
	consumer := NewConsumerWithReader(reader)
	consumer.minBackoff = 20 * time.Millisecond
	consumer.maxBackoff = 40 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error { return nil }) }()

	time.Sleep(150 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	// 20 + 40 + 40 + 40 ms of waiting fits in the window; a spinning loop fetches thousands of times
	assert.LessOrEqual(t, reader.fetchCount(), 6)
	assert.GreaterOrEqual(t, reader.fetchCount(), 2)
}

func TestConsumer_CancelDuringBackoffReturnsPromptly(t *testing.T) {
	reader := &fakeReader{brokenErr: errors.New("broker unreachable")}
	consumer := NewConsumerWithReader(reader)
	consumer.minBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error { return nil }) }()

	require.Eventually(t, func() bool { return reader.fetchCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop while backing off")
	}
}
