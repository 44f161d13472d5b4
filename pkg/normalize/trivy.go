package normalize

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type trivyReport struct {
	SchemaVersion int           `json:"SchemaVersion"`
	ArtifactName  string        `json:"ArtifactName"`
	Results       []trivyResult `json:"Results"`
}

type trivyResult struct {
	Target          string      `json:"Target"`
	Vulnerabilities []trivyVuln `json:"Vulnerabilities"`
}

type trivyVuln struct {
	VulnerabilityID string               `json:"VulnerabilityID"`
	PkgName         string               `json:"PkgName"`
	Title           string               `json:"Title"`
	Description     string               `json:"Description"`
	Severity        string               `json:"Severity"`
	FixedVersion    string               `json:"FixedVersion"`
	CVSS            map[string]trivyCVSS `json:"CVSS"`
}

type trivyCVSS struct {
	V3Score float64 `json:"V3Score"`
	V2Score float64 `json:"V2Score"`
}

func parseTrivy(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	var tr trivyReport
	if err := json.Unmarshal(raw, &tr); err != nil {
		return report, goerr.Wrap(types.ErrNormalization, "failed to parse trivy report",
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	for _, result := range tr.Results {
		for _, vuln := range result.Vulnerabilities {
			if vuln.VulnerabilityID == "" {
				continue
			}

			title := vuln.Title
			if title == "" {
				title = vuln.VulnerabilityID + " in " + vuln.PkgName
			}

			remediation := ""
			if vuln.FixedVersion != "" {
				remediation = "Upgrade " + vuln.PkgName + " to " + vuln.FixedVersion
			}

			cvss := trivyCVSSScore(vuln.CVSS)
			severity := SeverityFromWord(vuln.Severity)
			if vuln.Severity == "" {
				severity = SeverityFromCVSS(cvss)
			}

			report.Findings = append(report.Findings, &model.Finding{
				DedupKey:     model.NewDedupKey(types.ToolTrivy, vuln.VulnerabilityID, target),
				Title:        title,
				Description:  vuln.Description,
				Severity:     severity,
				CVSSScore:    cvss,
				ExternalID:   vuln.VulnerabilityID,
				Asset:        target,
				Service:      vuln.PkgName,
				SourceTool:   types.ToolTrivy,
				Status:       types.FindingStatusOpen,
				DiscoveredAt: now,
				UpdatedAt:    now,
				Remediation:  remediation,
			})
		}
	}

	return report, nil
}

// trivyCVSSScore prefers the NVD V3 score, then any source's V3, then V2.
func trivyCVSSScore(sources map[string]trivyCVSS) *float64 {
	if cvss, ok := sources["nvd"]; ok && cvss.V3Score > 0 {
		return &cvss.V3Score
	}
	for _, cvss := range sources {
		if cvss.V3Score > 0 {
			score := cvss.V3Score
			return &score
		}
	}
	for _, cvss := range sources {
		if cvss.V2Score > 0 {
			score := cvss.V2Score
			return &score
		}
	}
	return nil
}
