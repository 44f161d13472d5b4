package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// PollAPIConfig describes the asynchronous scan API of a tool. The endpoint
// layout follows the ZAP JSON API; other scanners fit by overriding paths.
type PollAPIConfig struct {
	BaseURL    string
	SubmitPath string
	StatusPath string
	ResultPath string
	StopPath   string

	// AuthPath enables the bearer-token flow: basic-auth exchange against
	// this path yields a JWT, and a 401 triggers exactly one re-auth retry.
	// When empty, APIKey is sent as a query parameter instead.
	AuthPath string
	APIKey   types.APIToken
	Username string
	Password types.Password
}

// PollAPIAdapter submits a scan to a tool's HTTP API and polls a status
// endpoint until 100%-equivalent completion, then fetches results. Used for
// web and vulnerability-assessment scanners with asynchronous scan APIs.
type PollAPIAdapter struct {
	tool types.ToolName
	cfg  PollAPIConfig
	http HTTPClient

	mu    sync.Mutex
	token string
}

func NewPollAPI(tool types.ToolName, cfg PollAPIConfig, httpClient HTTPClient) *PollAPIAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PollAPIAdapter{
		tool: tool,
		cfg:  cfg,
		http: httpClient,
	}
}

func (x *PollAPIAdapter) Start(ctx context.Context, target, mode string) (*interfaces.JobHandle, error) {
	body, err := x.get(ctx, x.cfg.SubmitPath, url.Values{"url": {target}, "mode": {mode}})
	if err != nil {
		return nil, goerr.Wrap(types.ErrAdapterStart, "failed to submit scan",
			goerr.V("tool", x.tool),
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	var resp struct {
		Scan string `json:"scan"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Scan == "" {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "submit response has no scan id",
			goerr.V("tool", x.tool),
			goerr.V("body", string(body)),
		)
	}

	return &interfaces.JobHandle{
		Tool:   x.tool,
		Target: target,
		Mode:   mode,
		Ref:    resp.Scan,
	}, nil
}

func (x *PollAPIAdapter) Poll(ctx context.Context, handle *interfaces.JobHandle) (*interfaces.PollResult, error) {
	body, err := x.get(ctx, x.cfg.StatusPath, url.Values{"scanId": {handle.Ref}})
	if err != nil {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "failed to poll scan status",
			goerr.V("tool", x.tool),
			goerr.V("ref", handle.Ref),
			goerr.V("cause", err.Error()),
		)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "malformed status response",
			goerr.V("tool", x.tool),
			goerr.V("body", string(body)),
		)
	}

	progress, err := strconv.Atoi(resp.Status)
	if err != nil {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "non-numeric scan progress",
			goerr.V("tool", x.tool),
			goerr.V("status", resp.Status),
		)
	}

	if progress >= 100 {
		return &interfaces.PollResult{State: interfaces.PollDone, Progress: 100}, nil
	}
	return &interfaces.PollResult{State: interfaces.PollPending, Progress: progress}, nil
}

func (x *PollAPIAdapter) Collect(ctx context.Context, handle *interfaces.JobHandle) ([]byte, error) {
	body, err := x.get(ctx, x.cfg.ResultPath, url.Values{"baseurl": {handle.Target}})
	if err != nil {
		return nil, goerr.Wrap(types.ErrAdapterProtocol, "failed to fetch scan results",
			goerr.V("tool", x.tool),
			goerr.V("ref", handle.Ref),
			goerr.V("cause", err.Error()),
		)
	}
	return body, nil
}

func (x *PollAPIAdapter) Cancel(ctx context.Context, handle *interfaces.JobHandle) error {
	if x.cfg.StopPath == "" {
		return nil
	}
	if _, err := x.get(ctx, x.cfg.StopPath, url.Values{"scanId": {handle.Ref}}); err != nil {
		return goerr.Wrap(err, "failed to stop scan",
			goerr.V("tool", x.tool),
			goerr.V("ref", handle.Ref),
		)
	}
	return nil
}

func (x *PollAPIAdapter) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, status, err := x.request(ctx, path, params)
	if err != nil {
		return nil, err
	}

	// Expired bearer token: re-authenticate once and retry.
	if status == http.StatusUnauthorized && x.cfg.AuthPath != "" {
		x.mu.Lock()
		x.token = ""
		x.mu.Unlock()

		body, status, err = x.request(ctx, path, params)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		return nil, goerr.New("unexpected status code",
			goerr.V("path", path),
			goerr.V("code", status),
			goerr.V("body", string(body)),
		)
	}

	return body, nil
}

func (x *PollAPIAdapter) request(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	if x.cfg.APIKey != "" && x.cfg.AuthPath == "" {
		params.Set("apikey", string(x.cfg.APIKey))
	}

	reqURL := fmt.Sprintf("%s%s?%s", x.cfg.BaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to build request", goerr.V("url", reqURL))
	}

	if x.cfg.AuthPath != "" {
		token, err := x.bearerToken(ctx)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := x.http.Do(req)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "request failed", goerr.V("url", reqURL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to read response body", goerr.V("url", reqURL))
	}

	return body, resp.StatusCode, nil
}

func (x *PollAPIAdapter) bearerToken(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.token != "" {
		return x.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.cfg.BaseURL+x.cfg.AuthPath, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to build auth request")
	}
	req.SetBasicAuth(x.cfg.Username, string(x.cfg.Password))

	resp, err := x.http.Do(req)
	if err != nil {
		return "", goerr.Wrap(types.ErrAdapterStart, "authentication request failed",
			goerr.V("tool", x.tool),
			goerr.V("cause", err.Error()),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(types.ErrAdapterStart, "authentication rejected",
			goerr.V("tool", x.tool),
			goerr.V("code", resp.StatusCode),
		)
	}

	var authResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", goerr.Wrap(types.ErrAdapterProtocol, "malformed auth response",
			goerr.V("tool", x.tool),
		)
	}

	token := authResp.Data.Token
	if token == "" {
		token = authResp.Token
	}
	if token == "" {
		return "", goerr.Wrap(types.ErrAdapterProtocol, "auth response has no token",
			goerr.V("tool", x.tool),
		)
	}

	x.token = token
	return token, nil
}
