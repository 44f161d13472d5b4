package normalize

import (
	"encoding/xml"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

type openvasResults struct {
	Results []openvasResult `xml:"results>result"`
}

type openvasResult struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Threat      string      `xml:"threat"`
	Severity    string      `xml:"severity"`
	NVT         *openvasNVT `xml:"nvt"`
}

type openvasNVT struct {
	OID  string       `xml:"oid,attr"`
	Refs []openvasRef `xml:"refs>ref"`
}

type openvasRef struct {
	Type string `xml:"type,attr"`
	ID   string `xml:"id,attr"`
}

func parseOpenVAS(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	var results openvasResults
	if err := xml.Unmarshal(raw, &results); err != nil {
		return report, goerr.Wrap(types.ErrNormalization, "failed to parse openvas results",
			goerr.V("target", target),
			goerr.V("cause", err.Error()),
		)
	}

	for _, result := range results.Results {
		// Log-level results are informational noise, not findings.
		switch result.Threat {
		case "High", "Medium", "Low":
		default:
			continue
		}

		var cvss *float64
		if result.Severity != "" {
			if score, err := strconv.ParseFloat(result.Severity, 64); err == nil {
				cvss = &score
			}
		}

		oid := "unknown"
		var cveID string
		if result.NVT != nil {
			if result.NVT.OID != "" {
				oid = result.NVT.OID
			}
			for _, ref := range result.NVT.Refs {
				if ref.Type == "cve" {
					cveID = ref.ID
					break
				}
			}
		}

		description := result.Description
		if len(description) > 1000 {
			description = description[:1000]
		}

		report.Findings = append(report.Findings, &model.Finding{
			DedupKey:     model.NewDedupKey(types.ToolOpenVAS, oid, target),
			Title:        result.Name,
			Description:  description,
			Severity:     SeverityFromWord(result.Threat),
			CVSSScore:    cvss,
			ExternalID:   cveID,
			Asset:        target,
			SourceTool:   types.ToolOpenVAS,
			Status:       types.FindingStatusOpen,
			DiscoveredAt: now,
			UpdatedAt:    now,
		})
	}

	return report, nil
}
