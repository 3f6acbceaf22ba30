package main

import (
	"chat-sync/auth"
	"chat-sync/internal"
	"chat-sync/moderation"
	"chat-sync/observability"
	"chat-sync/repositories"
	"chat-sync/runtime"
	"chat-sync/search"
	"chat-sync/sink"
	"chat-sync/transport/ws"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every defer (database, index) on the exit path, which os.Exit in
// the middle of the setup would skip.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	identity, err := auth.NewTokenIdentity([]byte(config.JWTSecret), config.AuthToken)
	if err != nil {
		return fmt.Errorf("identity error: %w", err)
	}
	log = log.With("user", identity.CurrentUserID())

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Metrics & moderation
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	moderator, err := buildModerator(log, config)
	if err != nil {
		return err
	}

	// 4. Engine
	projections := repositories.NewProjectionRepository(db, log)
	rejections := repositories.NewRejectionRepository(db, log, config.LimitRejections)
	logSink := sink.NewLogSink(log)

	engine := runtime.NewEngine(log, runtime.Config{
		BufferSize:      config.RoomBufferSize,
		DedupCapacity:   config.DedupCapacity,
		SinkTimeout:     config.SinkTimeout,
		RestartInterval: config.RestartInterval,
		SaveDebounce:    config.SaveDebounce,
		SaveTimeout:     config.SaveTimeout,
		TypingTTL:       config.TypingTTL,

		MetricInterval:       config.MetricInterval,
		LowCapacityThreshold: config.LowCapacityThreshold,
	}, runtime.Deps{
		Identity:  identity,
		Source:    ws.NewSource(log, ws.Config{URL: config.SourceURL, Token: identity.Token()}),
		Store:     projections,
		Moderator: moderator,
		Metrics:   metrics,
	})
	engine.RegisterSinks(logSink)
	engine.RegisterRejectionSinks(rejections, logSink)

	if config.BlugeFilepath != "" {
		writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
		if err != nil {
			return fmt.Errorf("search index opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing search index...")
			_ = writer.Close()
		}()
		engine.EnableSearch(search.NewIndex(log, writer, engine))
	}

	timeline := sink.NewTimeline(identity.CurrentUserID(), engine.Query())

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	engine.Start(ctx)
	defer engine.Stop()

	for _, roomID := range config.RoomIDs() {
		engine.Subscribe(string(identity.CurrentUserID()), roomID, timeline)
		if err := engine.Open(ctx, roomID); err != nil {
			return fmt.Errorf("open room %s: %w", roomID, err)
		}
	}

	// 6. Debug server: /metrics and /inspect
	debug := internal.NewDebugServer(log, config.MetricsAddr, db, registry, nil, func() map[string]any {
		stats := engine.IngestStats()
		return map[string]any{
			"rooms":      len(config.RoomIDs()),
			"accepted":   stats.Accepted,
			"duplicates": stats.Duplicates,
			"malformed":  stats.Malformed,
		}
	})
	errChan := make(chan error, 1)
	go func() {
		errChan <- debug.Run(ctx)
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("debug server error: %w", err)
		}
	}

	for _, roomID := range config.RoomIDs() {
		log.Info("Room state", "room", roomID,
			"messages", len(timeline.Rows(roomID)),
			"unread", timeline.Unread(roomID))
	}
	log.Info("Program stopped cleanly")
	return nil
}

func buildModerator(log *slog.Logger, config internal.Config) (*moderation.Moderator, error) {
	words := config.Words()
	if len(words) == 0 {
		log.Info("No censored words configured, moderation disabled")
		return nil, nil
	}
	replacement, err := internal.CharacterRune(config.CharacterReplacement)
	if err != nil {
		return nil, err
	}
	return moderation.NewModerator(words, replacement)
}
