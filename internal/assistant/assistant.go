// Package assistant dispatches routed queries to their handlers.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/kai/internal/chain"
	"github.com/MikeSquared-Agency/kai/internal/codegen"
	"github.com/MikeSquared-Agency/kai/internal/hermes"
	"github.com/MikeSquared-Agency/kai/internal/launch"
	"github.com/MikeSquared-Agency/kai/internal/router"
	"github.com/MikeSquared-Agency/kai/internal/session"
	"github.com/MikeSquared-Agency/kai/internal/weather"
)

const (
	GoodbyeReply       = "Goodbye! Have a nice day!"
	ErrorReply         = "Something went wrong. Please try again."
	WeatherUnavailable = "I am unable to retrieve the weather right now."
	musicNotice        = "Opening Spotify. Enjoy your music!"
)

type Asker interface {
	Ask(ctx context.Context, n chain.Notifier, prompt string) string
}

type Generator interface {
	Generate(ctx context.Context, s codegen.Session, query string) (codegen.Report, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, n chain.Notifier, query string) string
}

type WeatherSource interface {
	Current(ctx context.Context, city string) (weather.Report, error)
}

type Launcher interface {
	OpenURL(ctx context.Context, url string) error
	PlayMusic(ctx context.Context) error
}

// EventSink receives an event for every handled query.
type EventSink interface {
	PublishQueryHandled(evt hermes.QueryEvent) error
}

// Deps are the collaborators an Assistant dispatches to. Events may be nil.
type Deps struct {
	Router    *router.Router
	AI        Asker
	Generator Generator
	Search    Summarizer
	Weather   WeatherSource
	Launcher  Launcher
	Events    EventSink
	Logger    *slog.Logger
}

// Reply is the answer to one query. Exit is set when the session should end.
type Reply struct {
	Text   string
	Action router.Kind
	Exit   bool
}

type Assistant struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Assistant {
	return &Assistant{Deps: d, now: time.Now}
}

// Handle routes query, runs its handler and records both sides in the
// session log. Handler panics are recovered into ErrorReply.
func (a *Assistant) Handle(ctx context.Context, s *session.Session, query string) (reply Reply) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Reply{}
	}
	s.Append(session.SpeakerUser, query)

	action := a.Router.Route(query)
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("handler panicked", "action", action.Kind.String(), "panic", r)
			reply = Reply{Text: ErrorReply, Action: action.Kind}
		}
		s.Append(session.SpeakerAssistant, reply.Text)
		a.publish(s, query, reply)
	}()

	a.Logger.Info("routed query", "session", s.ID(), "action", action.Kind.String())
	return a.dispatch(ctx, s, action)
}

// Respond handles query and shows and speaks the reply.
func (a *Assistant) Respond(ctx context.Context, s *session.Session, query string) Reply {
	reply := a.Handle(ctx, s, query)
	if reply.Text != "" {
		s.Display(session.SpeakerAssistant + ": " + reply.Text)
		s.Say(ctx, reply.Text)
	}
	return reply
}

func (a *Assistant) dispatch(ctx context.Context, s *session.Session, action router.Action) Reply {
	reply := Reply{Action: action.Kind}
	switch action.Kind {
	case router.Exit:
		reply.Text, reply.Exit = GoodbyeReply, true
	case router.GenerateCode:
		reply.Text = a.generateCode(ctx, s, action.Query)
	case router.OpenSite:
		reply.Text = a.openSite(ctx, action.Target)
	case router.ReportTime:
		reply.Text = "The time is " + a.now().Format("03:04 PM")
	case router.ReportDate:
		reply.Text = "Today's date is " + a.now().Format("January 02, 2006")
	case router.PlayMusic:
		reply.Text = a.playMusic(ctx, s)
	case router.ReportWeather:
		reply.Text = a.reportWeather(ctx, action.City)
	default:
		reply.Text = a.converse(ctx, s, action.Query)
	}
	return reply
}

func (a *Assistant) converse(ctx context.Context, s *session.Session, query string) string {
	if router.NeedsLiveSearch(query) {
		return a.Search.Summarize(ctx, s, query)
	}
	return a.AI.Ask(ctx, s, query)
}

func (a *Assistant) generateCode(ctx context.Context, s *session.Session, query string) string {
	report, err := a.Generator.Generate(ctx, s, query)
	if err != nil && !errors.Is(err, codegen.ErrNoLanguage) {
		a.Logger.Error("code generation failed", "error", err)
		return ErrorReply
	}
	return report.Summary()
}

func (a *Assistant) openSite(ctx context.Context, target string) string {
	if err := a.Launcher.OpenURL(ctx, launch.SiteURL(target)); err != nil {
		a.Logger.Error("failed to open site", "target", target, "error", err)
		return fmt.Sprintf("Sorry, I couldn't open %s.", target)
	}
	return fmt.Sprintf("Opening %s.", target)
}

func (a *Assistant) playMusic(ctx context.Context, s *session.Session) string {
	if err := a.Launcher.PlayMusic(ctx); err != nil {
		a.Logger.Error("failed to play music", "error", err)
		return "Sorry, I couldn't start the music player."
	}
	s.Notify(ctx, musicNotice)
	return "Playing music."
}

func (a *Assistant) reportWeather(ctx context.Context, city string) string {
	r, err := a.Weather.Current(ctx, city)
	var apiErr *weather.APIError
	switch {
	case errors.As(err, &apiErr):
		return "Error: " + apiErr.Message
	case err != nil:
		a.Logger.Error("weather lookup failed", "city", city, "error", err)
		return WeatherUnavailable
	}
	return fmt.Sprintf("The temperature in %s is %g°C with %s.", city, r.Temperature, r.Description)
}

func (a *Assistant) publish(s *session.Session, query string, reply Reply) {
	if a.Events == nil {
		return
	}
	evt := hermes.QueryEvent{
		SessionID: s.ID().String(),
		Query:     query,
		Action:    reply.Action.String(),
		Reply:     reply.Text,
		At:        a.now().UTC(),
	}
	if err := a.Events.PublishQueryHandled(evt); err != nil {
		a.Logger.Warn("failed to publish query event", "error", err)
	}
}
