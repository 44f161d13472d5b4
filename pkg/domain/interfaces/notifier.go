package interfaces

import (
	"context"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
)

// Notifier is the alerting surface collaborator. It receives one completion
// event per terminal job transition and every raw alert produced by pull
// adapters, unmodified.
type Notifier interface {
	NotifyScanComplete(ctx context.Context, n *model.ScanNotification) error
	NotifyAlert(ctx context.Context, alert *model.Alert) error
}
