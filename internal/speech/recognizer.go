package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrUnknownValue means audio was captured but no words were recognized.
	ErrUnknownValue = errors.New("could not understand audio")
	// ErrService means the recognition engine itself failed.
	ErrService = errors.New("speech recognition service unavailable")
)

// Recognizer captures one utterance and returns its transcript.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// CommandRecognizer runs an external program that records a phrase and
// prints the transcript on stdout.
type CommandRecognizer struct {
	Command string
	Args    []string
}

func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.Command, r.Args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrUnknownValue
	}
	return strings.ToLower(text), nil
}
