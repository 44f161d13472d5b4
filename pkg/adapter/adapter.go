package adapter

import (
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// HTTPClient is the minimal transport used by API-driven adapters,
// injectable for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Registry maps tool names to their adapter. The lifecycle manager resolves
// adapters only through the registry and stays tool-agnostic.
type Registry struct {
	adapters map[types.ToolName]interfaces.Adapter
	timeouts map[types.ToolName]time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[types.ToolName]interfaces.Adapter),
		timeouts: defaultTimeouts(),
	}
}

func (x *Registry) Register(name types.ToolName, adapter interfaces.Adapter) {
	x.adapters[name] = adapter
}

func (x *Registry) Get(name types.ToolName) (interfaces.Adapter, error) {
	adapter, ok := x.adapters[name]
	if !ok {
		return nil, goerr.Wrap(types.ErrInvalidOption, "no adapter registered for tool",
			goerr.V("tool", name),
		)
	}
	return adapter, nil
}

// Timeout returns the hard execution deadline for the tool, measured from
// job start (queue wait does not count).
func (x *Registry) Timeout(name types.ToolName) time.Duration {
	if d, ok := x.timeouts[name]; ok {
		return d
	}
	return 5 * time.Minute
}

func (x *Registry) SetTimeout(name types.ToolName, d time.Duration) {
	x.timeouts[name] = d
}

// Fast local tools get short deadlines; heavy scanners may legitimately run
// for most of an hour.
func defaultTimeouts() map[types.ToolName]time.Duration {
	return map[types.ToolName]time.Duration{
		types.ToolNmap:    10 * time.Minute,
		types.ToolZAP:     10 * time.Minute,
		types.ToolOpenVAS: 60 * time.Minute,
		types.ToolTrivy:   5 * time.Minute,
		types.ToolTShark:  5 * time.Minute,
		types.ToolWazuh:   5 * time.Minute,
	}
}
