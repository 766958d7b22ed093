// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the echo
// HTTP server.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"

	"codeberg.org/nutechnocrats/clubhub/internal/config"
	"codeberg.org/nutechnocrats/clubhub/internal/database"
	"codeberg.org/nutechnocrats/clubhub/internal/handlers"
	"codeberg.org/nutechnocrats/clubhub/internal/i18n"
	"codeberg.org/nutechnocrats/clubhub/internal/repository"
	"codeberg.org/nutechnocrats/clubhub/internal/services/admin"
	authsvc "codeberg.org/nutechnocrats/clubhub/internal/services/auth"
	"codeberg.org/nutechnocrats/clubhub/internal/services/email"
	"codeberg.org/nutechnocrats/clubhub/internal/services/token"
)

const shutdownTimeout = 10 * time.Second

// Notifier sends every account email.
type Notifier interface {
	authsvc.Notifier
	admin.Notifier
}

// App holds the wired services behind the HTTP API.
type App struct {
	Config *config.Config
	Repo   *repository.Repository
	Auth   *authsvc.Service
	Admin  *admin.Service
}

// NewApp builds the services on top of an open, migrated database.
func NewApp(cfg *config.Config, db *sqlx.DB, notifier Notifier) (*App, error) {
	tokens, err := token.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	repo := repository.New(db)
	hasher := authsvc.NewHasher(cfg.Auth.HashCost, cfg.Auth.HashWorkers)

	passwords := authsvc.DefaultPasswordValidator()
	if cfg.Auth.StrictPasswords {
		passwords = authsvc.StrictPasswordValidator()
	}

	return &App{
		Config: cfg,
		Repo:   repo,
		Auth:   authsvc.NewService(repo, hasher, tokens, notifier, authsvc.WithPasswordValidator(passwords)),
		Admin:  admin.NewService(repo, notifier),
	}, nil
}

// Echo creates the HTTP server with middleware and routes.
func (a *App) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(a.Config.Env == config.EnvDevelopment)

	setupMiddleware(e, a.Config)
	setupRoutes(e, a)

	return e
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("server_starting",
		"env", cfg.Env,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("database_close_failed", "error", closeErr)
		}
	}()

	mailer, err := NewMailer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mailer.Close() }()

	app, err := NewApp(cfg, db, mailer)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, app.Echo(), cfg)
}

// NewMailer sends through SMTP when a host is configured and otherwise only
// logs outgoing messages.
func NewMailer(cfg *config.Config) (*email.Service, error) {
	var sender email.Sender
	if cfg.SMTP.Enabled() {
		smtp, err := email.NewSMTPSender(&cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp sender: %w", err)
		}
		sender = smtp
	} else {
		slog.Warn("smtp_disabled", "detail", "no smtp host configured, emails are only logged")
		sender = email.NewLogSender(slog.Default())
	}
	return email.NewService(sender, cfg.Server.BaseURL, cfg.Server.FrontendURL), nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled() {
		var err error
		if tlsConfig, err = loadTLS(cfg.TLS); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		slog.Info("server_running", "url", cfg.Server.BaseURL, "tls", tlsConfig != nil)
		var err error
		if tlsConfig != nil {
			err = startTLSServer(e, addr, tlsConfig)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("server_shutting_down")
	case err := <-errChan:
		slog.Error("server_error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}

	slog.Info("server_stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
