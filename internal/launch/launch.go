// Package launch performs the OS-level side effects Kai is asked for:
// opening a website and starting a music player.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

type runner func(ctx context.Context, name string, args ...string) error

// Launcher starts detached processes for browser and music actions.
type Launcher struct {
	musicCommand string
	goos         string
	run          runner
	logger       *slog.Logger
}

func New(musicCommand string, logger *slog.Logger) *Launcher {
	return &Launcher{
		musicCommand: musicCommand,
		goos:         runtime.GOOS,
		run:          startDetached,
		logger:       logger,
	}
}

// SiteURL turns a spoken site name into a www .com address.
func SiteURL(target string) string {
	return "https://www." + strings.ReplaceAll(target, " ", "") + ".com"
}

// OpenURL opens url in the default browser.
func (l *Launcher) OpenURL(ctx context.Context, url string) error {
	var name string
	var args []string
	switch l.goos {
	case "darwin":
		name, args = "open", []string{url}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		name, args = "xdg-open", []string{url}
	}
	l.logger.Info("opening url", "url", url)
	if err := l.run(ctx, name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// PlayMusic runs the configured music command through the system shell.
func (l *Launcher) PlayMusic(ctx context.Context) error {
	if l.musicCommand == "" {
		return errors.New("music command not configured")
	}
	l.logger.Info("launching music player", "command", l.musicCommand)
	var err error
	if l.goos == "windows" {
		err = l.run(ctx, "cmd", "/C", l.musicCommand)
	} else {
		err = l.run(ctx, "sh", "-c", l.musicCommand)
	}
	if err != nil {
		return fmt.Errorf("play music: %w", err)
	}
	return nil
}

func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
