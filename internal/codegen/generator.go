// Package codegen turns "write a ... program" requests into source files.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/kai/internal/chain"
	"github.com/MikeSquared-Agency/kai/internal/extract"
)

var (
	ErrNoLanguage = errors.New("no programming language detected")
	ErrNoCode     = errors.New("no code block in reply")
)

// Session is the caller's context: who asked and where notices go.
type Session interface {
	chain.Notifier
	ID() uuid.UUID
}

// Program is a generated source file.
type Program struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Task      string    `json:"task"`
	Language  string    `json:"language"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive records generated programs somewhere durable.
type Archive interface {
	RecordProgram(ctx context.Context, p Program) error
}

// Outcome is the result of a single task. Err is nil when the file was written.
type Outcome struct {
	Index   int
	Task    string
	Program *Program
	Err     error
}

type Report struct {
	Language Language
	Outcomes []Outcome
}

// Saved returns the number of tasks whose file was written.
func (r Report) Saved() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Summary() string {
	if r.Language.Name == "" {
		return noLanguageMsg
	}
	return fmt.Sprintf("Saved %d of %d %s programs.", r.Saved(), len(r.Outcomes), r.Language.Name)
}

const noLanguageMsg = "Sorry, I couldn't detect a programming language in your request."

type Generator struct {
	chain   *chain.Chain
	dir     string
	archive Archive
	logger  *slog.Logger
	now     func() time.Time
}

// NewGenerator writes programs into dir. archive may be nil.
func NewGenerator(c *chain.Chain, dir string, archive Archive, logger *slog.Logger) *Generator {
	return &Generator{
		chain:   c,
		dir:     dir,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate runs each task of query through the fallback chain and saves the
// first code block of every reply. A failed task never stops the others.
func (g *Generator) Generate(ctx context.Context, s Session, query string) (Report, error) {
	lang, ok := DetectLanguage(query)
	if !ok {
		return Report{}, ErrNoLanguage
	}

	s.Notify(ctx, fmt.Sprintf("Generating %s programs. Please wait.", lang.Name))

	report := Report{Language: lang}
	for i, task := range SplitTasks(query) {
		idx := i + 1
		prog, err := g.runTask(ctx, s, lang, idx, task)
		report.Outcomes = append(report.Outcomes, Outcome{Index: idx, Task: task, Program: prog, Err: err})
	}

	g.logger.Info("code generation finished",
		"session", s.ID(),
		"language", lang.Name,
		"tasks", len(report.Outcomes),
		"saved", report.Saved(),
	)
	return report, nil
}

func (g *Generator) runTask(ctx context.Context, s Session, lang Language, idx int, task string) (*Program, error) {
	res, err := g.chain.Try(ctx, s, task)
	if err != nil {
		g.logger.Warn("task generation failed", "task", idx, "error", err)
		s.Notify(ctx, fmt.Sprintf("Sorry, I'm unable to generate the program %d right now.", idx))
		return nil, err
	}

	code, ok := extract.CodeBlock(res.Reply)
	if !ok {
		g.logger.Warn("no code block in reply", "task", idx, "provider", res.Provider, "reply", res.Reply)
		s.Notify(ctx, fmt.Sprintf("Sorry, I couldn't extract proper code for program %d.", idx))
		return nil, ErrNoCode
	}

	name := Filename(code, lang.Ext, task)
	path := filepath.Join(g.dir, name)
	if err := g.write(path, code); err != nil {
		g.logger.Error("failed to save program", "task", idx, "path", path, "error", err)
		s.Notify(ctx, fmt.Sprintf("Sorry, I couldn't save program %d.", idx))
		return nil, err
	}

	prog := &Program{
		ID:        uuid.New(),
		SessionID: s.ID(),
		Task:      task,
		Language:  lang.Name,
		Filename:  name,
		Path:      path,
		Source:    code,
		CreatedAt: g.now().UTC(),
	}
	if g.archive != nil {
		if err := g.archive.RecordProgram(ctx, *prog); err != nil {
			g.logger.Warn("failed to archive program", "path", path, "error", err)
		}
	}

	s.Notify(ctx, fmt.Sprintf("Saved program %d as %s.", idx, name))
	g.logger.Info("saved program", "task", idx, "path", path, "provider", res.Provider)
	return prog, nil
}

func (g *Generator) write(path, code string) error {
	if g.dir != "" {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
