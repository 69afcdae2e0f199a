package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type step struct {
	text string
	err  error
}

// scriptedRecognizer replays steps, then blocks until cancelled.
type scriptedRecognizer struct {
	mu    sync.Mutex
	steps []step
}

func (r *scriptedRecognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	if len(r.steps) > 0 {
		s := r.steps[0]
		r.steps = r.steps[1:]
		r.mu.Unlock()
		return s.text, s.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

type collector struct {
	mu    sync.Mutex
	items []string
	ch    chan string
}

func newCollector() *collector {
	return &collector{ch: make(chan string, 16)}
}

func (c *collector) add(s string) {
	c.mu.Lock()
	c.items = append(c.items, s)
	c.mu.Unlock()
	c.ch <- s
}

func (c *collector) Notify(_ context.Context, msg string) { c.add("notice:" + msg) }

func (c *collector) wait(t *testing.T, n int) []string {
	t.Helper()
	var got []string
	for i := 0; i < n; i++ {
		select {
		case s := <-c.ch:
			got = append(got, s)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d events: %v", i, n, got)
		}
	}
	return got
}

func TestMicrophone_HandlesUtterancesAndErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &scriptedRecognizer{steps: []step{
		{text: "what time is it"},
		{err: ErrUnknownValue},
		{err: errors.New("engine crashed")},
		{text: "open youtube"},
	}}
	events := newCollector()
	mic := NewMicrophone(rec, func(_ context.Context, text string) { events.add("heard:" + text) },
		events, nil, time.Millisecond, discardLogger())

	if err := mic.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := events.wait(t, 4)
	mic.Stop()

	want := []string{
		"heard:what time is it",
		"notice:" + msgUnknown,
		"notice:" + msgUnavailable,
		"heard:open youtube",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if mic.Listening() {
		t.Error("expected microphone off after Stop")
	}
}

func TestMicrophone_StartIsIdempotentAndStopWaits(t *testing.T) {
	defer goleak.VerifyNone(t)

	mic := NewMicrophone(&scriptedRecognizer{}, func(context.Context, string) {}, nil, nil, time.Millisecond, discardLogger())

	if err := mic.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mic.Start(context.Background()); err != nil {
		t.Fatalf("second start should be a no-op, got %v", err)
	}
	if !mic.Listening() {
		t.Fatal("expected microphone on")
	}
	mic.Stop()
	mic.Stop()
}

func TestMicrophone_RefusedWhileSpeaking(t *testing.T) {
	defer goleak.VerifyNone(t)

	mic := NewMicrophone(&scriptedRecognizer{}, func(context.Context, string) {}, nil,
		func() bool { return true }, time.Millisecond, discardLogger())

	if err := mic.Set(context.Background(), true); !errors.Is(err, ErrSpeaking) {
		t.Fatalf("expected ErrSpeaking, got %v", err)
	}
	if mic.Listening() {
		t.Error("microphone must stay off while speaking")
	}
}

func TestMicrophone_ParentCancelEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	mic := NewMicrophone(&scriptedRecognizer{}, func(context.Context, string) {}, nil, nil, time.Millisecond, discardLogger())
	if err := mic.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()
	mic.Stop()
}
