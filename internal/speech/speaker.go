// Package speech wraps text-to-speech and speech-to-text engines that run as
// external commands, and drives the continuous microphone loop.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// CommandSpeaker voices text by running Command with Args followed by the text.
// A new utterance interrupts the previous one.
type CommandSpeaker struct {
	Command string
	Args    []string
	logger  *slog.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	speaking bool
}

func NewCommandSpeaker(command string, args []string, logger *slog.Logger) *CommandSpeaker {
	return &CommandSpeaker{Command: command, Args: args, logger: logger}
}

// NewEspeak returns a speaker backed by espeak or espeak-ng at the given rate.
func NewEspeak(command string, rate int, logger *slog.Logger) *CommandSpeaker {
	return NewCommandSpeaker(command, []string{"-s", strconv.Itoa(rate)}, logger)
}

// Speak starts playback and returns once the engine is running. Any
// utterance still playing is interrupted; use Wait to let it finish first.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	s.Stop()

	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	args := append(append([]string{}, s.Args...), text)
	cmd := exec.CommandContext(pctx, s.Command, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", s.Command, err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.done = done
	s.speaking = true
	s.mu.Unlock()

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		defer s.mu.Unlock()
		defer close(done)
		if s.gen == gen {
			s.speaking = false
			s.cancel = nil
		}
		cancel()
		if err != nil && pctx.Err() == nil {
			s.logger.Warn("speech playback failed", "error", err)
		}
	}()
	return nil
}

// Stop interrupts the current utterance, if any.
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.speaking = false
	s.gen++
}

// Wait blocks until the current utterance finishes or is stopped.
func (s *CommandSpeaker) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}
