package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/urfave/cli/v3"

	"github.com/Salmaelayeb/sentinel-hub/pkg/cli/config"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/usecase"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

func scanCommand() *cli.Command {
	var (
		toolName string
		target   string
		mode     string

		postgres config.Postgres
		notifier config.Notifier
		tools    config.Tools
	)

	return &cli.Command{
		Name:    "scan",
		Aliases: []string{"sc"},
		Usage:   "Run a single scan synchronously and store its results",
		Flags: slice.Flatten([]cli.Flag{
			&cli.StringFlag{
				Name:        "tool",
				Aliases:     []string{"t"},
				Usage:       "Tool to run [nmap|zap|openvas|trivy|tshark|wazuh]",
				Required:    true,
				Destination: &toolName,
			},
			&cli.StringFlag{
				Name:        "target",
				Usage:       "Scan target (host, URL, image or interface depending on tool)",
				Required:    true,
				Destination: &target,
			},
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "Tool-specific scan mode",
				Destination: &mode,
			},
		}, postgres.Flags(), notifier.Flags(), tools.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			tool := types.ToolName(toolName)
			if !tool.IsValid() {
				return goerr.Wrap(types.ErrInvalidOption, "unknown tool", goerr.V("tool", toolName))
			}

			logging.Default().Info("starting scan",
				slog.Any("Tool", tool),
				slog.Any("Target", target),
				slog.Any("Mode", mode),
			)

			clients, err := buildClients(ctx, &postgres, &notifier, &tools)
			if err != nil {
				return err
			}

			uc := usecase.New(clients)

			job := model.NewScanJob(tool, target, mode, logging.CtxTime(ctx))
			if err := uc.ExecuteScanJob(ctx, job); err != nil {
				return err
			}

			stored, err := clients.Database().GetScanJob(ctx, job.ID)
			if err != nil {
				return err
			}

			logging.Default().Info("scan finished",
				slog.Any("JobID", stored.ID),
				slog.Any("Status", stored.Status),
				slog.Int("Findings", stored.FindingsCount),
			)

			return nil
		},
	}
}
