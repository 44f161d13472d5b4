package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/Salmaelayeb/sentinel-hub/pkg/adapter"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Tools builds the adapter registry from an optional YAML catalog. Local
// command-line tools are registered with default binary names even without a
// catalog; API-driven tools need their endpoint configured to be available.
type Tools struct {
	catalogPath string
}

type toolCatalog struct {
	Tools map[string]toolEntry `yaml:"tools"`
}

type toolEntry struct {
	Bin      string         `yaml:"bin"`
	BaseURL  string         `yaml:"base_url"`
	APIKey   types.APIToken `yaml:"api_key"`
	Username string         `yaml:"username"`
	Password types.Password `yaml:"password"`
	Timeout  string         `yaml:"timeout"`
}

func (x *Tools) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tool-catalog",
			Usage:       "Path to tool catalog YAML (optional)",
			Category:    "Tools",
			Sources:     cli.EnvVars("SENTINEL_TOOL_CATALOG"),
			Destination: &x.catalogPath,
		},
	}
}

func (x *Tools) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("CatalogPath", x.catalogPath),
	)
}

func (x *Tools) NewRegistry(httpClient adapter.HTTPClient) (*adapter.Registry, error) {
	catalog := toolCatalog{Tools: map[string]toolEntry{}}

	if x.catalogPath != "" {
		raw, err := os.ReadFile(filepath.Clean(x.catalogPath))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read tool catalog", goerr.V("path", x.catalogPath))
		}
		if err := yaml.Unmarshal(raw, &catalog); err != nil {
			return nil, goerr.Wrap(err, "failed to parse tool catalog", goerr.V("path", x.catalogPath))
		}
	}

	registry := adapter.NewRegistry()

	registry.Register(types.ToolNmap, adapter.NewExec(types.ToolNmap,
		catalog.bin(types.ToolNmap, "nmap"), adapter.NmapArgv))
	registry.Register(types.ToolTrivy, adapter.NewExec(types.ToolTrivy,
		catalog.bin(types.ToolTrivy, "trivy"), adapter.TrivyArgv))
	registry.Register(types.ToolTShark, adapter.NewExec(types.ToolTShark,
		catalog.bin(types.ToolTShark, "tshark"), adapter.TSharkArgv))

	if entry, ok := catalog.Tools[string(types.ToolZAP)]; ok && entry.BaseURL != "" {
		registry.Register(types.ToolZAP, adapter.NewPollAPI(types.ToolZAP, adapter.PollAPIConfig{
			BaseURL:    entry.BaseURL,
			SubmitPath: "/JSON/ascan/action/scan/",
			StatusPath: "/JSON/ascan/view/status/",
			ResultPath: "/JSON/core/view/alerts/",
			StopPath:   "/JSON/ascan/action/stop/",
			APIKey:     entry.APIKey,
		}, httpClient))
	}

	if entry, ok := catalog.Tools[string(types.ToolOpenVAS)]; ok && entry.BaseURL != "" {
		registry.Register(types.ToolOpenVAS, adapter.NewPollAPI(types.ToolOpenVAS, adapter.PollAPIConfig{
			BaseURL:    entry.BaseURL,
			SubmitPath: "/scans/start",
			StatusPath: "/scans/status",
			ResultPath: "/scans/results",
			StopPath:   "/scans/stop",
			AuthPath:   "/login",
			Username:   entry.Username,
			Password:   entry.Password,
		}, httpClient))
	}

	if entry, ok := catalog.Tools[string(types.ToolWazuh)]; ok && entry.BaseURL != "" {
		registry.Register(types.ToolWazuh, adapter.NewPull(types.ToolWazuh, adapter.PullConfig{
			BaseURL:  entry.BaseURL,
			AuthPath: "/security/user/authenticate",
			Username: entry.Username,
			Password: entry.Password,
		}, httpClient))
	}

	for name, entry := range catalog.Tools {
		if entry.Timeout == "" {
			continue
		}
		d, err := time.ParseDuration(entry.Timeout)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid tool timeout",
				goerr.V("tool", name), goerr.V("timeout", entry.Timeout))
		}
		registry.SetTimeout(types.ToolName(name), d)
	}

	return registry, nil
}

func (x toolCatalog) bin(tool types.ToolName, fallback string) string {
	if entry, ok := x.Tools[string(tool)]; ok && entry.Bin != "" {
		return entry.Bin
	}
	return fallback
}
