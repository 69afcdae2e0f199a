package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	msgUnknown     = "Could not understand audio."
	msgUnavailable = "Speech recognition service unavailable."
)

// ErrSpeaking is returned when the microphone is switched on during playback.
var ErrSpeaking = errors.New("cannot listen while speaking")

type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Handler receives each recognized utterance.
type Handler func(ctx context.Context, text string)

// Microphone runs a listen-recognize-handle loop until stopped.
type Microphone struct {
	rec      Recognizer
	handle   Handler
	notifier Notifier
	speaking func() bool
	pause    time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMicrophone builds a loop. speaking may be nil; pause is the wait after a
// recognition service failure.
func NewMicrophone(rec Recognizer, handle Handler, n Notifier, speaking func() bool, pause time.Duration, logger *slog.Logger) *Microphone {
	if speaking == nil {
		speaking = func() bool { return false }
	}
	return &Microphone{
		rec:      rec,
		handle:   handle,
		notifier: n,
		speaking: speaking,
		pause:    pause,
		logger:   logger,
	}
}

// Start launches the loop. It is a no-op if the loop is already running.
func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	if m.speaking() {
		return ErrSpeaking
	}

	lctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		m.run(lctx)
	}()
	m.logger.Info("microphone on")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (m *Microphone) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("microphone off")
}

func (m *Microphone) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Set switches the microphone on or off.
func (m *Microphone) Set(ctx context.Context, on bool) error {
	if on {
		return m.Start(ctx)
	}
	m.Stop()
	return nil
}

func (m *Microphone) run(ctx context.Context) {
	for ctx.Err() == nil {
		text, err := m.rec.Listen(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, ErrUnknownValue):
			m.notify(ctx, msgUnknown)
		case err != nil:
			m.logger.Warn("speech recognition failed", "error", err)
			m.notify(ctx, msgUnavailable)
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.pause):
			}
		default:
			m.logger.Debug("heard", "text", text)
			m.handle(ctx, text)
		}
	}
}

func (m *Microphone) notify(ctx context.Context, msg string) {
	if m.notifier != nil {
		m.notifier.Notify(ctx, msg)
	}
}
