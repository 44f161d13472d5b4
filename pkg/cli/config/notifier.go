package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra/notify"
)

type Notifier struct {
	webhookURL string
}

func (x *Notifier) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notify-webhook-url",
			Usage:       "Webhook endpoint for scan and alert notifications (optional, log-only when omitted)",
			Category:    "Notification",
			Sources:     cli.EnvVars("SENTINEL_NOTIFY_WEBHOOK_URL"),
			Destination: &x.webhookURL,
		},
	}
}

func (x *Notifier) New() interfaces.Notifier {
	if x.webhookURL == "" {
		return notify.NewLogNotifier()
	}
	return notify.NewWebhook(x.webhookURL)
}

func (x *Notifier) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("WebhookURL", x.webhookURL),
	)
}
