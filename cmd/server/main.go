package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/huddlechat/huddle/internal/adapters/http"
	wssignal "github.com/huddlechat/huddle/internal/adapters/signal"
	"github.com/huddlechat/huddle/internal/adapters/store"
	"github.com/huddlechat/huddle/internal/app"
	"github.com/huddlechat/huddle/internal/config"
	"github.com/huddlechat/huddle/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var (
		directory core.Directory
		sink      core.HistorySink
	)
	if cfg.MongoURI != "" {
		ms, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect mongo")
		}
		defer func() {
			if err := ms.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}()
		directory, sink = ms, ms
	} else {
		log.Warn().Msg("no mongo_uri configured, using in-memory directory and history")
		directory = store.NewMemoryDirectory()
		sink = store.NewMemoryHistory()
	}

	registry := app.NewRegistry()
	rooms := app.NewRoomStore()
	broadcast := app.NewBroadcaster(registry)
	history := app.NewHistory(sink, cfg.HistoryBuffer)
	defer history.Close()
	presence := app.NewPresence(registry, rooms, broadcast, directory)
	relay := app.NewRelay(rooms, broadcast, history)
	calls := app.NewCalls(broadcast, history)

	ctrl := wssignal.NewSignalWSController(cfg, registry, presence, relay, calls)

	r := router.SetupRouter(ctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
