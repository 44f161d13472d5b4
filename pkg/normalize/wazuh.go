package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// wazuhPayload is the shape the pull adapter hands over: the alert feed plus
// per-agent vulnerability records fetched in the same pull.
type wazuhPayload struct {
	Alerts          []wazuhAlert `json:"alerts"`
	Vulnerabilities []wazuhVuln  `json:"vulnerabilities"`
}

type wazuhAlert struct {
	ID        string     `json:"id"`
	Timestamp string     `json:"timestamp"`
	Rule      wazuhRule  `json:"rule"`
	Agent     wazuhAgent `json:"agent"`
	Data      wazuhData  `json:"data"`
	FullLog   string     `json:"full_log"`
}

type wazuhRule struct {
	ID          string   `json:"id"`
	Level       int      `json:"level"`
	Description string   `json:"description"`
	Groups      []string `json:"groups"`
}

type wazuhAgent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	IP   string `json:"ip"`
}

type wazuhData struct {
	SrcIP string `json:"srcip"`
	DstIP string `json:"dstip"`
}

type wazuhVuln struct {
	CVE        string   `json:"cve"`
	Title      string   `json:"title"`
	Rationale  string   `json:"rationale"`
	Name       string   `json:"name"`
	Reference  string   `json:"reference"`
	CVSS3Score *float64 `json:"cvss3_score"`
	CVSS2Score *float64 `json:"cvss2_score"`
	AgentID    string   `json:"agent_id"`
	AgentName  string   `json:"agent_name"`
	AgentIP    string   `json:"agent_ip"`
}

func parseWazuh(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	var payload wazuhPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return report, goerr.Wrap(types.ErrNormalization, "failed to parse wazuh payload",
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	for _, alert := range payload.Alerts {
		message := alert.Rule.Description
		if message == "" {
			message = "Wazuh alert"
		}

		sourceIP := alert.Data.SrcIP
		if sourceIP == "" {
			sourceIP = alert.Agent.IP
		}

		source := alert.Agent.Name
		if source == "" {
			source = "unknown"
		}

		fullLog := alert.FullLog
		if len(fullLog) > 1000 {
			fullLog = fullLog[:1000]
		}

		report.Alerts = append(report.Alerts, &model.Alert{
			ID:            types.NewAlertID(),
			Type:          wazuhAlertType(alert.Rule.Groups),
			Severity:      SeverityFromLevel(alert.Rule.Level),
			Message:       message,
			Source:        source,
			SourceIP:      sourceIP,
			DestinationIP: alert.Data.DstIP,
			SourceTool:    types.ToolWazuh,
			Timestamp:     wazuhTimestamp(alert.Timestamp, now),
			Details: map[string]any{
				"wazuh_id":   alert.ID,
				"rule_id":    alert.Rule.ID,
				"rule_level": alert.Rule.Level,
				"groups":     alert.Rule.Groups,
				"full_log":   fullLog,
			},
		})
	}

	for _, vuln := range payload.Vulnerabilities {
		if vuln.CVE == "" {
			continue
		}

		cvss := vuln.CVSS3Score
		if cvss == nil {
			cvss = vuln.CVSS2Score
		}

		title := vuln.Title
		if title == "" {
			title = vuln.CVE
		}

		rationale := vuln.Rationale
		if len(rationale) > 1000 {
			rationale = rationale[:1000]
		}

		report.Findings = append(report.Findings, &model.Finding{
			DedupKey:     model.NewDedupKey(types.ToolWazuh, vuln.CVE, vuln.AgentID),
			Title:        title,
			Description:  rationale,
			Severity:     SeverityFromCVSS(cvss),
			CVSSScore:    cvss,
			ExternalID:   vuln.CVE,
			Asset:        fmt.Sprintf("%s (%s)", vuln.AgentName, vuln.AgentIP),
			Service:      vuln.Name,
			SourceTool:   types.ToolWazuh,
			Status:       types.FindingStatusOpen,
			DiscoveredAt: now,
			UpdatedAt:    now,
			Remediation:  vuln.Reference,
		})
	}

	return report, nil
}

// wazuhAlertType maps rule groups to the canonical alert taxonomy. Unknown
// groups default to intrusion, matching the upstream rule set's bias.
func wazuhAlertType(groups []string) types.AlertType {
	lower := make([]string, len(groups))
	for i, g := range groups {
		lower[i] = strings.ToLower(g)
	}

	contains := func(candidates ...string) bool {
		for _, c := range candidates {
			for _, g := range lower {
				if g == c {
					return true
				}
			}
		}
		return false
	}

	switch {
	case contains("intrusion_detection", "ids", "attack"):
		return types.AlertIntrusion
	case contains("malware", "virus", "trojan"):
		return types.AlertMalware
	case contains("vulnerability", "cve"):
		return types.AlertVulnerability
	case contains("policy", "pci_dss", "gdpr", "hipaa"):
		return types.AlertPolicyViolation
	case contains("anomaly", "suspicious"):
		return types.AlertAnomaly
	default:
		return types.AlertIntrusion
	}
}

func wazuhTimestamp(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	// Wazuh format: 2024-01-15T10:30:00.000+0000
	raw = strings.Replace(raw, "+0000", "+00:00", 1)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC()
	}
	return fallback
}
