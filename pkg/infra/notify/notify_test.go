package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/infra/notify"
)

type mockHTTPClient struct {
	handler func(req *http.Request) (*http.Response, error)
	calls   []*http.Request
	bodies  [][]byte
}

func (x *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	x.calls = append(x.calls, req)
	x.bodies = append(x.bodies, body)
	return x.handler(req)
}

func response(code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}
}

func TestWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("scan completion posts JSON event", func(t *testing.T) {
		client := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
			return response(200), nil
		}}
		hook := notify.NewWebhook("https://hooks.example.com/scan", notify.WithHTTPClient(client))

		n := &model.ScanNotification{
			JobID:         types.NewJobID(),
			Tool:          types.ToolZAP,
			Target:        "https://app.example.com",
			Status:        types.JobStatusCompleted,
			FindingsCount: 3,
			Timestamp:     time.Now(),
		}
		gt.NoError(t, hook.NotifyScanComplete(ctx, n))

		gt.V(t, len(client.calls)).Equal(1)
		gt.V(t, client.calls[0].Method).Equal(http.MethodPost)
		gt.V(t, client.calls[0].Header.Get("Content-Type")).Equal("application/json")

		var event struct {
			Event   string                 `json:"event"`
			Payload model.ScanNotification `json:"payload"`
		}
		gt.NoError(t, json.Unmarshal(client.bodies[0], &event))
		gt.V(t, event.Event).Equal("scan.complete")
		gt.V(t, event.Payload.FindingsCount).Equal(3)
	})

	t.Run("alert posts alert event", func(t *testing.T) {
		client := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
			return response(200), nil
		}}
		hook := notify.NewWebhook("https://hooks.example.com/scan", notify.WithHTTPClient(client))

		alert := &model.Alert{
			ID:         types.NewAlertID(),
			Type:       types.AlertIntrusion,
			Severity:   types.SeverityHigh,
			Message:    "port scan detected",
			SourceTool: types.ToolTShark,
			Timestamp:  time.Now(),
		}
		gt.NoError(t, hook.NotifyAlert(ctx, alert))

		var event struct {
			Event string `json:"event"`
		}
		gt.NoError(t, json.Unmarshal(client.bodies[0], &event))
		gt.V(t, event.Event).Equal("alert.raised")
	})

	t.Run("non-2xx response is an error", func(t *testing.T) {
		client := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
			return response(500), nil
		}}
		hook := notify.NewWebhook("https://hooks.example.com/scan", notify.WithHTTPClient(client))

		err := hook.NotifyScanComplete(ctx, &model.ScanNotification{Timestamp: time.Now()})
		gt.Error(t, err)
	})
}

func TestLogNotifier(t *testing.T) {
	ctx := context.Background()
	n := notify.NewLogNotifier()

	gt.NoError(t, n.NotifyScanComplete(ctx, &model.ScanNotification{
		Tool:      types.ToolNmap,
		Status:    types.JobStatusCompleted,
		Timestamp: time.Now(),
	}))
	gt.NoError(t, n.NotifyAlert(ctx, &model.Alert{
		Message:    "test alert",
		SourceTool: types.ToolWazuh,
		Timestamp:  time.Now(),
	}))
}
