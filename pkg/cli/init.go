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
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

func initCommand() *cli.Command {
	var (
		toolName  string
		target    string
		mode      string
		frequency string

		postgres config.Postgres
	)

	return &cli.Command{
		Name:  "init",
		Usage: "Seed tool records and optionally create a scan schedule",
		Flags: slice.Flatten([]cli.Flag{
			&cli.StringFlag{
				Name:        "schedule-tool",
				Usage:       "Tool for a new schedule (optional)",
				Destination: &toolName,
			},
			&cli.StringFlag{
				Name:        "schedule-target",
				Usage:       "Target for the new schedule",
				Destination: &target,
			},
			&cli.StringFlag{
				Name:        "schedule-mode",
				Usage:       "Tool-specific mode for the new schedule",
				Destination: &mode,
			},
			&cli.StringFlag{
				Name:        "schedule-frequency",
				Usage:       "Frequency [hourly|daily|weekly|monthly]",
				Value:       string(types.FrequencyDaily),
				Destination: &frequency,
			},
		}, postgres.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			if !postgres.Enabled() {
				return goerr.Wrap(types.ErrInvalidOption, "init requires a postgres DSN, the in-memory store has nothing to seed")
			}

			db, err := postgres.NewDatabase(ctx)
			if err != nil {
				return err
			}

			for _, name := range types.AllToolNames() {
				if _, err := db.GetOrCreateTool(ctx, name); err != nil {
					return err
				}
			}
			logging.Default().Info("seeded tool records", slog.Int("count", len(types.AllToolNames())))

			if toolName == "" {
				return nil
			}

			schedule := &model.Schedule{
				ID:        types.NewScheduleID(),
				Tool:      types.ToolName(toolName),
				Target:    target,
				Mode:      mode,
				Frequency: types.Frequency(frequency),
				IsActive:  true,
				CreatedAt: logging.CtxTime(ctx),
			}
			if err := schedule.Validate(); err != nil {
				return err
			}
			if err := db.CreateSchedule(ctx, schedule); err != nil {
				return err
			}

			logging.Default().Info("created schedule",
				slog.Any("ID", schedule.ID),
				slog.Any("Tool", schedule.Tool),
				slog.Any("Target", schedule.Target),
				slog.Any("Frequency", schedule.Frequency),
			)

			return nil
		},
	}
}
