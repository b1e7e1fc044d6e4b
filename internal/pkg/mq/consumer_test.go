package mq

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// fakeReader serves a fixed sequence of messages, then blocks until the
// context is cancelled.
type fakeReader struct {
	messages  []kafka.Message
	next      int
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.next < len(r.messages) {
		msg := r.messages[r.next]
		r.next++
		return msg, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumeCommitsAfterHandlerSuccess(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "some.topic", Offset: 1, Value: []byte("a")},
		{Topic: "some.topic", Offset: 2, Value: []byte("b")},
	}}
	c := NewConsumer(reader, WithConsumeBackoff(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	var handled int
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, kafka.Message) error {
			handled++
			if handled == 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Consume() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Consume() did not return")
	}

	if handled != 2 {
		t.Errorf("handled = %d, want 2", handled)
	}
	// The second message is handled but cancellation lands before its
	// commit; at-least-once allows that.
	if len(reader.committed) < 1 {
		t.Errorf("committed = %d, want at least 1", len(reader.committed))
	}
	if !reader.closed {
		t.Error("reader not closed")
	}
}

func TestConsumeHandlerErrorStopsWithoutCommit(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Topic: "some.topic", Offset: 1}}}
	c := NewConsumer(reader, WithConsumeBackoff(time.Millisecond))

	boom := errors.New("handler blew up")
	err := c.Consume(context.Background(), func(context.Context, kafka.Message) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Consume() error = %v, want %v", err, boom)
	}
	if len(reader.committed) != 0 {
		t.Errorf("committed = %d, want 0", len(reader.committed))
	}
}

func TestConsumeCancellationUnwinds(t *testing.T) {
	reader := &fakeReader{}
	c := NewConsumer(reader, WithConsumeBackoff(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, func(context.Context, kafka.Message) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Consume() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Consume() did not return after cancellation")
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	got, err := Decode[payload](kafka.Message{Value: []byte(`{"name":"x"}`)})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Name != "x" {
		t.Errorf("Name = %s, want x", got.Name)
	}

	if _, err := Decode[payload](kafka.Message{Topic: "t", Value: []byte("not json")}); err == nil {
		t.Fatal("Decode() succeeded on malformed payload, want error")
	}
}
