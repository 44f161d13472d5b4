package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/urfave/cli/v3"

	"github.com/Salmaelayeb/sentinel-hub/pkg/cli/config"
	"github.com/Salmaelayeb/sentinel-hub/pkg/controller/server"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra"
	"github.com/Salmaelayeb/sentinel-hub/pkg/usecase"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

func serveCommand() *cli.Command {
	var (
		addr         string
		tickInterval time.Duration

		postgres config.Postgres
		notifier config.Notifier
		tools    config.Tools
		sentry   config.Sentry
	)
	serveFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Binding address",
			Value:       "127.0.0.1:8000",
			Sources:     cli.EnvVars("SENTINEL_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "tick-interval",
			Usage:       "Scheduler tick interval",
			Value:       time.Minute,
			Sources:     cli.EnvVars("SENTINEL_TICK_INTERVAL"),
			Destination: &tickInterval,
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Server mode: HTTP API plus scan scheduler",
		Flags: slice.Flatten(
			serveFlags,
			postgres.Flags(),
			notifier.Flags(),
			tools.Flags(),
			sentry.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting serve",
				slog.Any("Addr", addr),
				slog.Any("TickInterval", tickInterval),
				slog.Any("Postgres", postgres),
				slog.Any("Notifier", notifier),
				slog.Any("Tools", tools),
				slog.Any("Sentry", sentry),
			)

			if err := sentry.Configure(ctx); err != nil {
				return err
			}

			clients, err := buildClients(ctx, &postgres, &notifier, &tools)
			if err != nil {
				return err
			}

			uc := usecase.New(clients)
			s := server.New(uc, clients.Database())

			schedCtx, stopScheduler := context.WithCancel(server.DetachContext(ctx))
			go func() {
				if err := uc.RunScheduler(schedCtx, tickInterval); err != nil {
					logging.Default().Error("scheduler exited", "error", err)
				}
			}()
			defer stopScheduler()

			serverErr := make(chan error, 1)
			httpServer := &http.Server{
				Addr:    addr,
				Handler: s.Mux(),

				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			go func() {
				logging.Default().Info("starting http server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
					serverErr <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErr:
				return err

			case sig := <-quit:
				logging.Default().Info("shutting down server", "signal", sig)

				stopScheduler()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server")
				}
			}

			return nil
		},
	}
}

func buildClients(ctx context.Context, postgres *config.Postgres, notifier *config.Notifier, tools *config.Tools) (*infra.Clients, error) {
	registry, err := tools.NewRegistry(http.DefaultClient)
	if err != nil {
		return nil, err
	}

	infraOptions := []infra.Option{
		infra.WithNotifier(notifier.New()),
		infra.WithAdapters(registry),
	}

	if postgres.Enabled() {
		db, err := postgres.NewDatabase(ctx)
		if err != nil {
			return nil, err
		}
		infraOptions = append(infraOptions, infra.WithDatabase(db))
	}

	return infra.New(infraOptions...), nil
}
