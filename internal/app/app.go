package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/api"
	"github.com/haytac/emote-relay/internal/config"
	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/formatter"
	"github.com/haytac/emote-relay/internal/metrics"
	"github.com/haytac/emote-relay/internal/proxy"
	"github.com/haytac/emote-relay/internal/scheduler"
	"github.com/haytac/emote-relay/internal/telegram"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

// Application holds all dependencies for the app.
type Application struct {
	Config    *config.AppConfig
	DB        *database.DB
	Scheduler interfaces.Scheduler
	Service   *Service
	API       *api.Server

	// Stores
	ChannelStore *database.ChannelStore
	ProxyStore   *database.ProxyStore
}

// NewApplication creates and initializes a new application instance.
func NewApplication(cfg *config.AppConfig) (*Application, error) {
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	channelStore := database.NewChannelStore(db)
	proxyStore := database.NewProxyStore(db)

	loadTimeout := cfg.Emotes.LoadTimeout()
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	clientFactory := proxy.NewHTTPClientFactory(loadTimeout)

	if cfg.Telegram.BotToken == "" {
		log.Warn().Msg("Configuration 'telegram.bot_token' (or EMOTE_RELAY_TELEGRAM_BOT_TOKEN env var) is not set. Relay calls will fail.")
	}
	notifier := telegram.NewClient(cfg.Telegram.BotToken, clientFactory)
	f := formatter.New(formatter.Options{
		ExpandShortcodes: cfg.Render.ExpandShortcodes,
		Sanitize:         cfg.Render.Sanitize,
	})

	svc := NewService(cfg, channelStore, proxyStore, clientFactory, notifier, f)

	return &Application{
		Config:       cfg,
		DB:           db,
		Scheduler:    scheduler.NewRefreshScheduler(),
		Service:      svc,
		API:          api.NewServer(svc),
		ChannelStore: channelStore,
		ProxyStore:   proxyStore,
	}, nil
}

// Run starts the scheduler and the HTTP servers and blocks until shutdown.
func (app *Application) Run(ctx context.Context) error {
	log.Info().Msg("Starting application...")

	metrics.StartServer(app.Config.MetricsPort)

	channels, err := app.ChannelStore.GetEnabledChannels(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load channels from database")
		return fmt.Errorf("loading channels: %w", err)
	}

	if len(channels) == 0 {
		log.Info().Msg("No enabled channels found in the database. Add channels via CLI.")
	}
	for _, c := range channels {
		interval := c.RefreshInterval(app.Config.Emotes.RefreshInterval())
		if err := app.Scheduler.Add(c, interval, app.Service.Refresh); err != nil {
			log.Error().Err(err).Str("channel", c.Name).Msg("Failed to add channel to scheduler")
		}
	}

	app.Scheduler.Start(ctx)
	app.API.Start(app.Config.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		log.Info().Str("signal", s.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Application context done, shutting down")
	}

	log.Info().Msg("Shutting down HTTP API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.API.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP API")
	}

	log.Info().Msg("Shutting down scheduler...")
	app.Scheduler.Stop()

	log.Info().Msg("Closing database connection...")
	if err := app.DB.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}

	log.Info().Msg("Application shut down gracefully.")
	return nil
}
