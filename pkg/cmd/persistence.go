// Package cmd provides shared construction helpers for the command
// binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowcommand/flowcommand/pkg/persistence"
	"github.com/flowcommand/flowcommand/pkg/persistence/file"
	"github.com/flowcommand/flowcommand/pkg/persistence/postgres"
)

// NewPersistence picks the storage backend from the database URL scheme.
// postgres:// selects PostgreSQL; anything else is treated as a file://
// data directory.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgres.NewPersistence(ctx, logger, databaseURL)
	}

	return file.NewPersistence(databaseURL, logger)
}
