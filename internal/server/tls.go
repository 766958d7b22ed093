// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"codeberg.org/nutechnocrats/clubhub/internal/config"
)

// loadTLS reads the configured certificate and key.
func loadTLS(cfg config.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	slog.Info("tls_enabled", "cert", cfg.CertFile, "key", cfg.KeyFile)
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
