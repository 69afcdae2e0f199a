package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MikeSquared-Agency/kai/internal/speech"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	waits   int
	stopped int
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Wait(context.Context) error {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeSpeaker) Speaking() bool { return false }

func TestAppendAndExport(t *testing.T) {
	s := New(nil, nil, discardLogger())
	s.Append(SpeakerUser, "hello")
	s.Append(SpeakerAssistant, "hi there")

	if got := s.Export(); got != "User: hello\nKai: hi there\n" {
		t.Errorf("unexpected export %q", got)
	}
	if len(s.Log()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(s.Log()))
	}
}

func TestLogReturnsCopy(t *testing.T) {
	s := New(nil, nil, discardLogger())
	s.Append(SpeakerUser, "one")

	entries := s.Log()
	entries[0].Text = "mutated"

	if s.Log()[0].Text != "one" {
		t.Error("Log must not expose internal storage")
	}
}

func TestClear(t *testing.T) {
	s := New(nil, nil, discardLogger())
	s.Append(SpeakerUser, "one")
	s.Clear()
	if len(s.Log()) != 0 {
		t.Errorf("expected empty log after clear, got %d", len(s.Log()))
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := New(nil, nil, discardLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(SpeakerUser, "q")
		}()
	}
	wg.Wait()
	if len(s.Log()) != 50 {
		t.Errorf("expected 50 entries, got %d", len(s.Log()))
	}
}

func TestNotifyDisplaysAndSpeaks(t *testing.T) {
	var out bytes.Buffer
	sp := &fakeSpeaker{}
	s := New(sp, &out, discardLogger())

	s.Notify(context.Background(), "**Saved** program 1")

	if out.String() != "Saved program 1\n" {
		t.Errorf("unexpected display %q", out.String())
	}
	if len(sp.spoken) != 1 || sp.spoken[0] != "Saved program 1" {
		t.Errorf("unexpected speech %v", sp.spoken)
	}
	if len(s.Log()) != 0 {
		t.Error("notices must not be added to the conversation log")
	}
}

func TestStopSpeaking(t *testing.T) {
	sp := &fakeSpeaker{}
	s := New(sp, nil, discardLogger())
	s.StopSpeaking()
	if sp.stopped != 1 {
		t.Errorf("expected speaker stopped once, got %d", sp.stopped)
	}

	New(nil, nil, discardLogger()).StopSpeaking()
}

func TestNotifyWaitsButSayDoesNot(t *testing.T) {
	sp := &fakeSpeaker{}
	s := New(sp, nil, discardLogger())

	s.Notify(context.Background(), "Generating python programs. Please wait.")
	if sp.waits != 1 {
		t.Errorf("expected notice to wait for playback, got %d waits", sp.waits)
	}

	if !s.Say(context.Background(), "Saved 1 of 1 python programs.") {
		t.Error("expected Say to report playback started")
	}
	if sp.waits != 1 {
		t.Errorf("expected reply not to wait, got %d waits", sp.waits)
	}
	if s.Say(context.Background(), "") {
		t.Error("expected empty text not to be spoken")
	}
}

func TestNoticeIsHeardBeforeNextReply(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	heard := filepath.Join(t.TempDir(), "heard")
	sp := speech.NewCommandSpeaker("sh", []string{"-c", `sleep 0.2; echo "$0" >> '` + heard + `'`}, discardLogger())
	s := New(sp, nil, discardLogger())
	ctx := context.Background()

	s.Notify(ctx, "Opening Spotify. Enjoy your music!")
	s.Say(ctx, "Playing music.")
	if err := sp.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	data, err := os.ReadFile(heard)
	if err != nil {
		t.Fatalf("read spoken log: %v", err)
	}
	want := "Opening Spotify. Enjoy your music!\nPlaying music.\n"
	if string(data) != want {
		t.Errorf("expected notice then reply, got %q", data)
	}
}
