package kafka_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/pkg/kafka"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &recordingWriter{}
	p := kafka.NewProducerWithWriter(w, 4, zerolog.Nop())
	p.Start()

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "order.created", []byte("o-1"), []byte(`{"a":1}`)))
	require.NoError(t, p.Publish(ctx, "order.status_changed", []byte("o-1"), []byte(`{"a":2}`)))

	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "order.created", w.msgs[0].Topic)
	assert.Equal(t, "order.status_changed", w.msgs[1].Topic)
	assert.True(t, w.closed)
}

func TestProducerRejectsAfterClose(t *testing.T) {
	p := kafka.NewProducerWithWriter(&recordingWriter{}, 1, zerolog.Nop())
	p.Start()
	p.Close()
	p.Close()
	p.WaitClosed()

	err := p.Publish(context.Background(), "t", nil, nil)
	assert.ErrorIs(t, err, kafka.ErrClosed)
}

func TestProducerCloseReleasesBlockedPublisher(t *testing.T) {
	// Never started, so the single inbox slot stays full.
	w := &recordingWriter{}
	p := kafka.NewProducerWithWriter(w, 1, zerolog.Nop())
	require.NoError(t, p.Publish(context.Background(), "t", nil, []byte("first")))

	blocked := make(chan error, 1)
	go func() {
		blocked <- p.Publish(context.Background(), "t", nil, []byte("second"))
	}()

	closed := make(chan struct{})
	go func() {
		p.Close()
		p.WaitClosed()
		close(closed)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, kafka.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher still blocked after Close")
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return for a producer that was never started")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.closed)
}

func TestProducerPublishHonoursContext(t *testing.T) {
	p := kafka.NewProducerWithWriter(&recordingWriter{}, 1, zerolog.Nop())
	defer p.Close()
	require.NoError(t, p.Publish(context.Background(), "t", nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", nil, nil), context.DeadlineExceeded)
}
