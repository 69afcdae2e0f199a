// Package chain implements the two-provider fallback used for every AI call.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/kai/internal/extract"
	"github.com/MikeSquared-Agency/kai/internal/provider"
)

const (
	Apology      = "I'm facing an issue, please try again later."
	SwitchNotice = "Primary AI failed. Switching to backup AI."
	CodeNotice   = "Here is the code. Please check the terminal."
)

// ErrExhausted is returned by Try when both providers failed.
var ErrExhausted = errors.New("all providers failed")

// Notifier receives status notices meant for the user.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Result is a successful reply and the provider that produced it.
type Result struct {
	Reply    string
	Provider string
	FellBack bool
}

type Chain struct {
	primary   provider.Provider
	secondary provider.Provider
	logger    *slog.Logger
}

// New returns a chain over primary and secondary. secondary may be nil.
func New(primary, secondary provider.Provider, logger *slog.Logger) *Chain {
	return &Chain{primary: primary, secondary: secondary, logger: logger}
}

// Try calls the primary provider once and, only if it errors, the secondary
// provider once with the same prompt.
func (c *Chain) Try(ctx context.Context, n Notifier, prompt string) (Result, error) {
	reply, err := c.primary.Generate(ctx, prompt)
	if err == nil {
		return Result{Reply: reply, Provider: c.primary.Name()}, nil
	}
	c.logger.Warn("primary provider failed", "provider", c.primary.Name(), "error", err)

	if c.secondary == nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	notify(ctx, n, SwitchNotice)

	reply, err2 := c.secondary.Generate(ctx, prompt)
	if err2 != nil {
		c.logger.Error("secondary provider failed", "provider", c.secondary.Name(), "error", err2)
		return Result{}, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(err, err2))
	}
	return Result{Reply: reply, Provider: c.secondary.Name(), FellBack: true}, nil
}

// Ask never fails: it returns the first successful reply or Apology.
func (c *Chain) Ask(ctx context.Context, n Notifier, prompt string) string {
	res, err := c.Try(ctx, n, prompt)
	if err != nil {
		return Apology
	}
	if !res.FellBack && extract.LooksLikeCode(res.Reply) {
		c.logger.Info("code reply", "provider", res.Provider, "code", res.Reply)
		notify(ctx, n, CodeNotice)
	}
	return res.Reply
}

func notify(ctx context.Context, n Notifier, msg string) {
	if n != nil {
		n.Notify(ctx, msg)
	}
}
