package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-admin/internal/auth"
	"github.com/vovakirdan/wirechat-admin/internal/config"
	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/metrics"
	"github.com/vovakirdan/wirechat-admin/internal/remote"
	"github.com/vovakirdan/wirechat-admin/internal/store"
	"github.com/vovakirdan/wirechat-admin/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-admin/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	session         *core.Session
	board           *core.Board
	ledger          store.SendLog
	log             *zerolog.Logger
}

// Identity derives the operator identity from configuration.
func Identity(cfg *config.Config) core.Identity {
	return core.Identity{ID: cfg.Admin.ID, Role: cfg.Admin.Role}
}

// NewClient builds the message store client described by cfg.
func NewClient(cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *remote.Client {
	var tokens *auth.JWTConfig
	if cfg.API.TokenSecret != "" {
		tokens = &auth.JWTConfig{
			Secret: []byte(cfg.API.TokenSecret),
			Issuer: cfg.API.TokenIssuer,
			TTL:    cfg.API.TokenTTL,
		}
	}
	return remote.New(remote.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		Identity: Identity(cfg),
		Tokens:   tokens,
	}, nil, m, logger)
}

// OpenLedger opens the send audit ledger, or returns nil when it is disabled.
func OpenLedger(cfg *config.Config) (store.SendLog, error) {
	if cfg.DatabasePath == "" {
		return nil, nil
	}
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	return st, nil
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if cfg.UsesPlaceholderIdentity() {
		logger.Warn().Str("admin_id", config.PlaceholderAdminID).Msg("admin id not configured, sending as the shared placeholder account")
	}
	if cfg.API.TokenSecret == "" {
		logger.Warn().Msg("api token secret not configured, requests to the message store are unauthenticated")
	}

	ledger, err := OpenLedger(cfg)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("send ledger initialized")
	}

	m := metrics.New()
	client := NewClient(cfg, m, logger)
	identity := Identity(cfg)

	session := core.NewSession(core.SessionConfig{
		API:        client,
		Identity:   identity,
		Ledger:     ledger,
		Metrics:    m,
		Logger:     logger,
		TimeLayout: cfg.Display.TimeLayout,
		Location:   time.Local,
	})
	board := core.NewBoard(client, identity, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Session: session,
		Board:   board,
		Ledger:  ledger,
		Metrics: m,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		session:         session,
		board:           board,
		ledger:          ledger,
		log:             logger,
	}, nil
}

// Handler exposes the dashboard routes, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	a.session.Start(ctx)
	go func() {
		if err := a.board.Refresh(ctx); err != nil {
			a.log.Warn().Err(err).Msg("initial board load failed")
		}
	}()

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("dashboard listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup stops the session and closes the ledger.
func (a *App) cleanup() {
	a.session.Close()

	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close ledger")
		} else {
			a.log.Info().Msg("ledger closed")
		}
	}
}
