package config

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/repository/postgres"
)

type Postgres struct {
	dsn string
}

func (x *Postgres) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "Postgres DSN (optional, in-memory store when omitted)",
			Category:    "Database",
			Sources:     cli.EnvVars("SENTINEL_POSTGRES_DSN"),
			Destination: &x.dsn,
		},
	}
}

func (x *Postgres) Enabled() bool {
	return x.dsn != ""
}

func (x *Postgres) NewDatabase(ctx context.Context) (interfaces.Database, error) {
	return postgres.New(ctx, x.dsn)
}

func (x *Postgres) LogValue() slog.Value {
	masked := ""
	if x.dsn != "" {
		masked = "(set)"
	}
	return slog.GroupValue(
		slog.Any("DSN", masked),
	)
}
