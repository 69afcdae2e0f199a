// Package session carries per-conversation state and the capabilities a
// handler may use: the conversation log, speech output and notices.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/kai/internal/extract"
)

const (
	SpeakerUser      = "User"
	SpeakerAssistant = "Kai"
)

// Speaker voices text. Speak may return before playback ends and
// interrupts whatever is playing; Wait blocks until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Wait(ctx context.Context) error
	Stop()
	Speaking() bool
}

type Entry struct {
	ID      uuid.UUID `json:"id"`
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type Session struct {
	id      uuid.UUID
	speaker Speaker
	out     io.Writer
	logger  *slog.Logger

	mu  sync.Mutex
	log []Entry
}

// New creates a session. speaker and out may be nil.
func New(speaker Speaker, out io.Writer, logger *slog.Logger) *Session {
	return &Session{
		id:      uuid.New(),
		speaker: speaker,
		out:     out,
		logger:  logger,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Append adds an entry to the conversation log.
func (s *Session) Append(speaker, text string) Entry {
	e := Entry{ID: uuid.New(), Speaker: speaker, Text: text, At: time.Now().UTC()}
	s.mu.Lock()
	s.log = append(s.log, e)
	s.mu.Unlock()
	return e
}

// Log returns a copy of the conversation so far.
func (s *Session) Log() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.log = nil
	s.mu.Unlock()
}

// Export renders the log as "User: ...\nKai: ..." lines.
func (s *Session) Export() string {
	var b strings.Builder
	for _, e := range s.Log() {
		fmt.Fprintf(&b, "%s: %s\n", e.Speaker, e.Text)
	}
	return b.String()
}

// Notify prints and speaks a status message and returns once it has been
// heard, so the next utterance cannot cut it off. It is not logged as a reply.
func (s *Session) Notify(ctx context.Context, msg string) {
	s.logger.Debug("notice", "session", s.id, "msg", msg)
	s.Display(msg)
	if !s.Say(ctx, msg) {
		return
	}
	if err := s.speaker.Wait(ctx); err != nil {
		s.logger.Debug("notice playback abandoned", "error", err)
	}
}

// Display writes text to the session output with markdown bold removed.
func (s *Session) Display(text string) {
	if s.out == nil {
		return
	}
	fmt.Fprintln(s.out, extract.StripBold(text))
}

// Say starts voicing text through the injected speaker, if any, interrupting
// a previous reply. It reports whether playback started.
func (s *Session) Say(ctx context.Context, text string) bool {
	if s.speaker == nil || text == "" {
		return false
	}
	if err := s.speaker.Speak(ctx, extract.StripBold(text)); err != nil {
		s.logger.Warn("speech failed", "error", err)
		return false
	}
	return true
}

// StopSpeaking interrupts playback only; in-flight requests continue.
func (s *Session) StopSpeaking() {
	if s.speaker != nil {
		s.speaker.Stop()
	}
}

func (s *Session) Speaking() bool {
	return s.speaker != nil && s.speaker.Speaking()
}
