package adapter_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type mockHTTPClient struct {
	handler func(req *http.Request) (*http.Response, error)
	calls   []*http.Request
}

func (x *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	x.calls = append(x.calls, req)
	return x.handler(req)
}

func jsonResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestPollAPIAdapterAPIKey(t *testing.T) {
	ctx := context.Background()

	newAdapter := func(handler func(req *http.Request) (*http.Response, error)) (*adapter.PollAPIAdapter, *mockHTTPClient) {
		client := &mockHTTPClient{handler: handler}
		ad := adapter.NewPollAPI(types.ToolZAP, adapter.PollAPIConfig{
			BaseURL:    "http://zap.local:8080",
			SubmitPath: "/JSON/ascan/action/scan/",
			StatusPath: "/JSON/ascan/view/status/",
			ResultPath: "/JSON/core/view/alerts/",
			StopPath:   "/JSON/ascan/action/stop/",
			APIKey:     "zap-key",
		}, client)
		return ad, client
	}

	t.Run("full scan cycle", func(t *testing.T) {
		status := "25"
		ad, client := newAdapter(func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/JSON/ascan/action/scan/":
				return jsonResponse(200, `{"scan":"7"}`), nil
			case "/JSON/ascan/view/status/":
				return jsonResponse(200, `{"status":"`+status+`"}`), nil
			case "/JSON/core/view/alerts/":
				return jsonResponse(200, `{"alerts":[]}`), nil
			}
			return jsonResponse(404, `{}`), nil
		})

		handle, err := ad.Start(ctx, "https://app.example.com", "active")
		gt.NoError(t, err)
		gt.V(t, handle.Ref).Equal("7")

		t.Run("api key is sent as query parameter", func(t *testing.T) {
			gt.V(t, client.calls[0].URL.Query().Get("apikey")).Equal("zap-key")
		})

		result, err := ad.Poll(ctx, handle)
		gt.NoError(t, err)
		gt.V(t, result.State).Equal(interfaces.PollPending)
		gt.V(t, result.Progress).Equal(25)

		status = "100"
		result, err = ad.Poll(ctx, handle)
		gt.NoError(t, err)
		gt.V(t, result.State).Equal(interfaces.PollDone)

		raw, err := ad.Collect(ctx, handle)
		gt.NoError(t, err)
		gt.V(t, string(raw)).Equal(`{"alerts":[]}`)
	})

	t.Run("missing scan id is a protocol error", func(t *testing.T) {
		ad, _ := newAdapter(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, `{"ok":true}`), nil
		})
		_, err := ad.Start(ctx, "https://app.example.com", "")
		gt.Error(t, err)
	})

	t.Run("non-numeric progress is a protocol error", func(t *testing.T) {
		ad, _ := newAdapter(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, `{"status":"running"}`), nil
		})
		_, err := ad.Poll(ctx, &interfaces.JobHandle{Tool: types.ToolZAP, Ref: "7"})
		gt.Error(t, err)
	})

	t.Run("cancel hits the stop endpoint", func(t *testing.T) {
		ad, client := newAdapter(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(200, `{}`), nil
		})
		gt.NoError(t, ad.Cancel(ctx, &interfaces.JobHandle{Tool: types.ToolZAP, Ref: "7"}))
		gt.V(t, client.calls[0].URL.Path).Equal("/JSON/ascan/action/stop/")
		gt.V(t, client.calls[0].URL.Query().Get("scanId")).Equal("7")
	})
}

func TestPollAPIAdapterBearerAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticates with basic credentials then sends bearer", func(t *testing.T) {
		client := &mockHTTPClient{}
		client.handler = func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/login" {
				user, pass, ok := req.BasicAuth()
				gt.True(t, ok)
				gt.V(t, user).Equal("admin")
				gt.V(t, pass).Equal("secret")
				return jsonResponse(200, `{"token":"jwt-1"}`), nil
			}
			gt.V(t, req.Header.Get("Authorization")).Equal("Bearer jwt-1")
			return jsonResponse(200, `{"scan":"42"}`), nil
		}

		ad := adapter.NewPollAPI(types.ToolOpenVAS, adapter.PollAPIConfig{
			BaseURL:    "http://openvas.local:9390",
			SubmitPath: "/scans/start",
			StatusPath: "/scans/status",
			AuthPath:   "/login",
			Username:   "admin",
			Password:   "secret",
		}, client)

		handle, err := ad.Start(ctx, "10.0.0.5", "full")
		gt.NoError(t, err)
		gt.V(t, handle.Ref).Equal("42")
	})

	t.Run("401 triggers exactly one re-auth retry", func(t *testing.T) {
		client := &mockHTTPClient{}
		logins := 0
		client.handler = func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/login" {
				logins++
				return jsonResponse(200, `{"token":"jwt-`+string(rune('0'+logins))+`"}`), nil
			}
			if req.Header.Get("Authorization") == "Bearer jwt-1" {
				return jsonResponse(401, `{}`), nil
			}
			return jsonResponse(200, `{"scan":"9"}`), nil
		}

		ad := adapter.NewPollAPI(types.ToolOpenVAS, adapter.PollAPIConfig{
			BaseURL:    "http://openvas.local:9390",
			SubmitPath: "/scans/start",
			AuthPath:   "/login",
			Username:   "admin",
			Password:   "secret",
		}, client)

		handle, err := ad.Start(ctx, "10.0.0.5", "")
		gt.NoError(t, err)
		gt.V(t, handle.Ref).Equal("9")
		gt.V(t, logins).Equal(2)
	})

	t.Run("rejected auth fails the start", func(t *testing.T) {
		client := &mockHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(403, `{}`), nil
		}}
		ad := adapter.NewPollAPI(types.ToolOpenVAS, adapter.PollAPIConfig{
			BaseURL:  "http://openvas.local:9390",
			AuthPath: "/login",
			Username: "admin",
			Password: "wrong",
		}, client)

		_, err := ad.Start(ctx, "10.0.0.5", "")
		gt.Error(t, err)
	})
}
