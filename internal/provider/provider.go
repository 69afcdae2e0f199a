// Package provider holds the hosted generative-AI backends Kai can call.
// Each backend turns a single user prompt into a text reply.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider generates a reply for a prompt sent as the entire user turn.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyReply is returned when a provider answers without any text.
var ErrEmptyReply = errors.New("empty reply")

// Error reports a failed provider call: quota, network or malformed response.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Provider: name, Err: err}
}

func clean(name, reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", &Error{Provider: name, Err: ErrEmptyReply}
	}
	return reply, nil
}
