package normalize

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Report holds the canonical candidates extracted from one raw tool output.
// A Report may be partially filled even when Normalize returns an error:
// candidates extracted before a parse failure are kept so the caller can
// still persist them.
type Report struct {
	Findings []*model.Finding
	Alerts   []*model.Alert
	Hosts    []*model.NetworkHost
}

// Normalize converts tool-specific raw output into canonical finding and
// alert candidates. The raw format is opaque to callers; each tool family has
// its own parser.
func Normalize(tool types.ToolName, target string, raw []byte, now time.Time) (*Report, error) {
	switch tool {
	case types.ToolNmap:
		return parseNmap(target, raw, now)
	case types.ToolZAP:
		return parseZAP(target, raw, now)
	case types.ToolOpenVAS:
		return parseOpenVAS(target, raw, now)
	case types.ToolTrivy:
		return parseTrivy(target, raw, now)
	case types.ToolTShark:
		return parseTShark(target, raw, now)
	case types.ToolWazuh:
		return parseWazuh(target, raw, now)
	}

	return &Report{}, goerr.Wrap(types.ErrNormalization, "no parser for tool", goerr.V("tool", tool))
}

// SeverityFromCVSS maps a CVSS-like 0-10 score to the canonical five-level
// severity. A missing score defaults to medium.
func SeverityFromCVSS(score *float64) types.Severity {
	if score == nil {
		return types.SeverityMedium
	}
	switch {
	case *score >= 9.0:
		return types.SeverityCritical
	case *score >= 7.0:
		return types.SeverityHigh
	case *score >= 4.0:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// SeverityFromLevel maps an integer alert-level scale (Wazuh rule levels,
// 1-15) to the canonical severity.
func SeverityFromLevel(level int) types.Severity {
	switch {
	case level >= 12:
		return types.SeverityCritical
	case level >= 9:
		return types.SeverityHigh
	case level >= 6:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// SeverityFromWord maps free-text severity labels used by trivy and openvas.
func SeverityFromWord(word string) types.Severity {
	switch word {
	case "CRITICAL", "Critical", "critical":
		return types.SeverityCritical
	case "HIGH", "High", "high":
		return types.SeverityHigh
	case "MEDIUM", "Medium", "medium":
		return types.SeverityMedium
	case "LOW", "Low", "low":
		return types.SeverityLow
	case "INFO", "Log", "info", "UNKNOWN":
		return types.SeverityInfo
	}
	return types.SeverityLow
}
