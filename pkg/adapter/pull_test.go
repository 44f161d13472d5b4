package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

func newPullAdapter(handler func(req *http.Request) (*http.Response, error)) *adapter.PullAdapter {
	return adapter.NewPull(types.ToolWazuh, adapter.PullConfig{
		BaseURL:  "https://wazuh.local:55000",
		AuthPath: "/security/user/authenticate",
		Username: "wazuh",
		Password: "secret",
	}, &mockHTTPClient{handler: handler})
}

func TestPullAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("start fails when the feed is unreachable", func(t *testing.T) {
		ad := newPullAdapter(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(401, `{}`), nil
		})
		_, err := ad.Start(ctx, "wazuh-manager", "")
		gt.Error(t, err)
	})

	t.Run("poll completes immediately", func(t *testing.T) {
		ad := newPullAdapter(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, `{"data":{"token":"jwt"}}`), nil
		})
		handle, err := ad.Start(ctx, "wazuh-manager", "")
		gt.NoError(t, err)

		result, err := ad.Poll(ctx, handle)
		gt.NoError(t, err)
		gt.V(t, result.State).Equal(interfaces.PollDone)
	})

	t.Run("collect merges alerts and vulnerabilities, dropping seen events", func(t *testing.T) {
		ad := newPullAdapter(func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/security/user/authenticate":
				return jsonResponse(200, `{"data":{"token":"jwt"}}`), nil
			case "/alerts":
				return jsonResponse(200, `{"data":{"affected_items":[
					{"id":"evt-1","rule":{"level":10}},
					{"id":"evt-2","rule":{"level":7}}
				]}}`), nil
			case "/vulnerability":
				return jsonResponse(200, `{"data":{"affected_items":[
					{"cve":"CVE-2022-0778","agent_id":"001"}
				]}}`), nil
			}
			return jsonResponse(404, `{}`), nil
		})

		handle, err := ad.Start(ctx, "wazuh-manager", "")
		gt.NoError(t, err)

		raw, err := ad.Collect(ctx, handle)
		gt.NoError(t, err)

		var payload struct {
			Alerts          []json.RawMessage `json:"alerts"`
			Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
		}
		gt.NoError(t, json.Unmarshal(raw, &payload))
		gt.V(t, len(payload.Alerts)).Equal(2)
		gt.V(t, len(payload.Vulnerabilities)).Equal(1)

		t.Run("second pull yields no already-seen alerts", func(t *testing.T) {
			raw, err := ad.Collect(ctx, handle)
			gt.NoError(t, err)
			gt.NoError(t, json.Unmarshal(raw, &payload))
			gt.V(t, len(payload.Alerts)).Equal(0)
		})
	})

	t.Run("missing vulnerability endpoint is tolerated", func(t *testing.T) {
		ad := newPullAdapter(func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/security/user/authenticate":
				return jsonResponse(200, `{"data":{"token":"jwt"}}`), nil
			case "/alerts":
				return jsonResponse(200, `{"data":{"affected_items":[{"id":"evt-9"}]}}`), nil
			}
			return jsonResponse(404, `{}`), nil
		})

		handle, err := ad.Start(ctx, "wazuh-manager", "")
		gt.NoError(t, err)

		raw, err := ad.Collect(ctx, handle)
		gt.NoError(t, err)

		var payload struct {
			Alerts          []json.RawMessage `json:"alerts"`
			Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
		}
		gt.NoError(t, json.Unmarshal(raw, &payload))
		gt.V(t, len(payload.Alerts)).Equal(1)
		gt.V(t, len(payload.Vulnerabilities)).Equal(0)
	})
}
