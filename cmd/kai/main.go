package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	"github.com/MikeSquared-Agency/kai/internal/api"
	"github.com/MikeSquared-Agency/kai/internal/assistant"
	"github.com/MikeSquared-Agency/kai/internal/chain"
	"github.com/MikeSquared-Agency/kai/internal/codegen"
	"github.com/MikeSquared-Agency/kai/internal/config"
	"github.com/MikeSquared-Agency/kai/internal/hermes"
	"github.com/MikeSquared-Agency/kai/internal/launch"
	"github.com/MikeSquared-Agency/kai/internal/provider"
	"github.com/MikeSquared-Agency/kai/internal/router"
	"github.com/MikeSquared-Agency/kai/internal/search"
	"github.com/MikeSquared-Agency/kai/internal/session"
	"github.com/MikeSquared-Agency/kai/internal/speech"
	"github.com/MikeSquared-Agency/kai/internal/store"
	"github.com/MikeSquared-Agency/kai/internal/weather"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type flags struct {
	micOn  bool
	noREPL bool
	noAPI  bool
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides LOG_LEVEL)")
	micOn := cli.BoolP("mic", "m", false, "Start with the microphone on")
	noREPL := cli.Bool("no-repl", false, "Do not read queries from stdin")
	noAPI := cli.Bool("no-api", false, "Do not start the HTTP API")
	cli.Parse()

	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load(*envFile)

	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := setupLogging(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, flags{micOn: *micOn, noREPL: *noREPL, noAPI: *noAPI}, logger); err != nil {
		logger.Error("kai failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, f flags, logger *slog.Logger) error {
	logger.Info("kai starting", "port", cfg.Port, "primary", cfg.PrimaryProvider, "secondary", cfg.SecondaryProvider)

	// AI providers
	primary, err := provider.FromConfig(ctx, cfg.PrimaryProvider, cfg)
	if err != nil {
		return fmt.Errorf("primary provider: %w", err)
	}
	var secondary provider.Provider
	if cfg.SecondaryProvider != "" && cfg.SecondaryProvider != "none" {
		p, err := provider.FromConfig(ctx, cfg.SecondaryProvider, cfg)
		if err != nil {
			logger.Warn("secondary provider unavailable, running without fallback", "provider", cfg.SecondaryProvider, "error", err)
		} else {
			secondary = p
		}
	}
	ai := chain.New(primary, secondary, logger)

	// Program archive (optional)
	var (
		archive  codegen.Archive
		programs api.ProgramArchive
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		archive, programs = db, db
		logger.Info("database connected")
	}

	// NATS (optional)
	var (
		events assistant.EventSink
		bus    *hermes.Client
	)
	if cfg.NatsURL != "" {
		bus, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer bus.Close()
		events = bus
		logger.Info("NATS connected", "url", cfg.NatsURL)
	}

	var speaker session.Speaker
	if cfg.SpeechEnabled {
		speaker = speech.NewEspeak(cfg.SpeechCommand, cfg.SpeechRate, logger)
	}
	sess := session.New(speaker, os.Stdout, logger)
	defer sess.StopSpeaking()

	kai := assistant.New(assistant.Deps{
		Router: router.New(router.DefaultRules(func(q string) string {
			return weather.ExtractCity(q, cfg.DefaultCity)
		})),
		AI:        ai,
		Generator: codegen.NewGenerator(ai, cfg.OutputDir, archive, logger),
		Search: search.NewSummarizer(
			search.NewClient(cfg.SerpAPIKey, cfg.SearchURL, cfg.ProviderTimeout),
			ai,
			search.Locale{Location: cfg.SearchLocation, Language: cfg.SearchLanguage, Country: cfg.SearchCountry},
			logger,
		),
		Weather:  weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherURL, cfg.ProviderTimeout),
		Launcher: launch.New(cfg.MusicCommand, logger),
		Events:   events,
		Logger:   logger,
	})

	respond := func(ctx context.Context, text string) {
		if kai.Respond(ctx, sess, text).Exit {
			stop()
		}
	}

	// Microphone (optional)
	var mic *speech.Microphone
	if fields := strings.Fields(cfg.ListenCommand); len(fields) > 0 {
		rec := &speech.CommandRecognizer{Command: fields[0], Args: fields[1:]}
		mic = speech.NewMicrophone(rec, respond, sess, sess.Speaking, 2*time.Second, logger)
		defer mic.Stop()
		if f.micOn {
			if err := mic.Start(ctx); err != nil {
				logger.Warn("microphone did not start", "error", err)
			}
		}
	} else if f.micOn {
		logger.Warn("KAI_LISTEN_COMMAND not set, microphone disabled")
	}

	if bus != nil {
		if err := subscribeControls(ctx, bus, sess, mic, logger); err != nil {
			return err
		}
	}

	if !f.noAPI {
		opts := api.Options{
			Port:      cfg.Port,
			Assistant: kai,
			Session:   sess,
			Programs:  programs,
			Logger:    logger,
		}
		if mic != nil {
			opts.Mic = mic
		}
		srv := api.NewServer(opts)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error("HTTP server error", "error", err)
				stop()
			}
		}()
	}

	if !f.noREPL {
		go repl(ctx, os.Stdin, os.Stdout, respond, stop)
	}

	logger.Info("kai ready", "session", sess.ID())
	<-ctx.Done()
	logger.Info("kai stopped")
	return nil
}

func subscribeControls(ctx context.Context, bus *hermes.Client, sess *session.Session, mic *speech.Microphone, logger *slog.Logger) error {
	if err := bus.OnMicControl(func(on bool) {
		if mic == nil {
			logger.Warn("mic control ignored, microphone disabled")
			return
		}
		if err := mic.Set(ctx, on); err != nil {
			logger.Warn("mic control failed", "on", on, "error", err)
		}
	}); err != nil {
		return err
	}
	return bus.OnSpeechStop(sess.StopSpeaking)
}

// repl reads one query per line until exit, EOF or cancellation.
func repl(ctx context.Context, in io.Reader, out io.Writer, respond func(context.Context, string), stop context.CancelFunc) {
	defer stop()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			return
		}
		respond(ctx, scanner.Text())
		if ctx.Err() != nil {
			return
		}
	}
}

func setupLogging(level, format string) *slog.Logger {
	lvl, ok := logLevelMap[level]
	if !ok {
		lvl = slog.LevelInfo
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: lvl, TimeFormat: time.Kitchen}))
}
