package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Finding is a canonical, deduplicated vulnerability record. Identity is the
// DedupKey: re-discovery of the same key never creates a second row.
type Finding struct {
	DedupKey     types.DedupKey
	Title        string
	Description  string
	Severity     types.Severity
	CVSSScore    *float64
	ExternalID   string
	Asset        string
	Port         int
	Service      string
	SourceTool   types.ToolName
	Status       types.FindingStatus
	DiscoveredAt time.Time
	UpdatedAt    time.Time
	Remediation  string
}

func (x *Finding) Validate() error {
	if x.DedupKey == "" {
		return goerr.Wrap(types.ErrValidationFailed, "dedup key is empty")
	}
	if x.Title == "" {
		return goerr.Wrap(types.ErrValidationFailed, "title is empty", goerr.V("dedupKey", x.DedupKey))
	}
	if !x.SourceTool.IsValid() {
		return goerr.Wrap(types.ErrValidationFailed, "unknown source tool", goerr.V("tool", x.SourceTool))
	}
	return nil
}

// NewDedupKey builds the deterministic identity of a finding from the tool
// family, a tool-native identifier (CVE, plugin ID, NVT OID, ...) and the
// affected asset. The tool prefix keeps keys from colliding across families.
func NewDedupKey(tool types.ToolName, nativeID, asset string) types.DedupKey {
	return types.DedupKey(fmt.Sprintf("%s-%s-%s", toolKeyPrefix(tool), nativeID, asset))
}

func toolKeyPrefix(tool types.ToolName) string {
	switch tool {
	case types.ToolNmap:
		return "NMAP"
	case types.ToolZAP:
		return "ZAP"
	case types.ToolOpenVAS:
		return "OPENVAS"
	case types.ToolTrivy:
		return "TRIVY"
	case types.ToolTShark:
		return "TSHARK"
	case types.ToolWazuh:
		return "WAZUH"
	}
	return "UNKNOWN"
}
