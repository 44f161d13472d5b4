package normalize

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type zapAlerts struct {
	Alerts []zapAlert `json:"alerts"`
}

type zapAlert struct {
	Alert       string `json:"alert"`
	PluginID    string `json:"pluginId"`
	RiskCode    string `json:"riskcode"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	URL         string `json:"url"`
}

// ZAP risk codes: 3=high risk, 2=medium, 1=low, 0=informational. The top
// code is treated as critical to match the alerting thresholds of the rest
// of the pipeline.
var zapRiskSeverity = map[string]types.Severity{
	"3": types.SeverityCritical,
	"2": types.SeverityHigh,
	"1": types.SeverityMedium,
	"0": types.SeverityLow,
}

func parseZAP(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	var alerts zapAlerts
	if err := json.Unmarshal(raw, &alerts); err != nil {
		return report, goerr.Wrap(types.ErrNormalization, "failed to parse zap alerts",
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	for _, alert := range alerts.Alerts {
		severity, ok := zapRiskSeverity[alert.RiskCode]
		if !ok {
			severity = types.SeverityLow
		}

		pluginID := alert.PluginID
		if pluginID == "" {
			pluginID = "UNKNOWN"
		}

		title := alert.Alert
		if title == "" {
			title = "Unknown vulnerability"
		}

		report.Findings = append(report.Findings, &model.Finding{
			DedupKey:     model.NewDedupKey(types.ToolZAP, pluginID, target),
			Title:        title,
			Description:  alert.Description,
			Severity:     severity,
			Asset:        target,
			SourceTool:   types.ToolZAP,
			Status:       types.FindingStatusOpen,
			DiscoveredAt: now,
			UpdatedAt:    now,
			Remediation:  alert.Solution,
		})
	}

	return report, nil
}
