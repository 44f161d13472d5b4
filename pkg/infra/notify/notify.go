package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/safe"
)

// HTTPClient is the transport used by the webhook notifier, injectable for
// tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook delivers scan completion and alert events as JSON POSTs to a single
// endpoint. Delivery failure is reported to the caller; the caller decides
// whether it is fatal.
type Webhook struct {
	url    string
	client HTTPClient
}

type WebhookOption func(*Webhook)

func WithHTTPClient(client HTTPClient) WebhookOption {
	return func(x *Webhook) {
		x.client = client
	}
}

func NewWebhook(url string, options ...WebhookOption) *Webhook {
	hook := &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range options {
		opt(hook)
	}
	return hook
}

func (x *Webhook) NotifyScanComplete(ctx context.Context, n *model.ScanNotification) error {
	return x.post(ctx, map[string]any{
		"event":   "scan.complete",
		"payload": n,
	})
}

func (x *Webhook) NotifyAlert(ctx context.Context, alert *model.Alert) error {
	return x.post(ctx, map[string]any{
		"event": "alert.raised",
		"payload": map[string]any{
			"id":        alert.ID,
			"type":      alert.Type,
			"severity":  alert.Severity,
			"message":   alert.Message,
			"source":    alert.Source,
			"tool":      alert.SourceTool,
			"timestamp": alert.Timestamp,
			"source_ip": alert.SourceIP,
			"details":   alert.Details,
		},
	})
}

func (x *Webhook) post(ctx context.Context, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.url, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to deliver notification", goerr.V("url", x.url))
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return goerr.New("notification endpoint returned error",
			goerr.V("url", x.url),
			goerr.V("status", resp.StatusCode),
		)
	}

	return nil
}

// LogNotifier writes notifications to the structured logger. It is the
// default when no webhook endpoint is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (x *LogNotifier) NotifyScanComplete(ctx context.Context, n *model.ScanNotification) error {
	logging.From(ctx).Info("scan finished",
		"jobID", n.JobID,
		"tool", n.Tool,
		"target", n.Target,
		"status", n.Status,
		"findings", n.FindingsCount,
		"error", n.ErrorSummary,
	)
	return nil
}

func (x *LogNotifier) NotifyAlert(ctx context.Context, alert *model.Alert) error {
	logging.From(ctx).Warn("security alert",
		"alertID", alert.ID,
		"type", alert.Type,
		"severity", alert.Severity,
		"message", alert.Message,
		"tool", alert.SourceTool,
	)
	return nil
}

var (
	_ interfaces.Notifier = (*Webhook)(nil)
	_ interfaces.Notifier = (*LogNotifier)(nil)
)
