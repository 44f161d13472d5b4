package normalize

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// portScanThreshold is the number of distinct destination ports a single
// source must probe within one capture to be flagged as a port scan.
const portScanThreshold = 20

// parseTShark analyzes tshark field output (-T fields), one line per captured
// packet with tab-separated columns ip.src, tcp.dstport, http.authorization
// and ftp.request.command. Columns for protocols absent from a packet are
// empty; lines without a tab are skipped. Capture analysis produces alerts
// only, never findings.
func parseTShark(target string, raw []byte, now time.Time) (*Report, error) {
	report := &Report{}

	portsBySource := map[string]map[string]struct{}{}
	credentialSeen := false

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) < 2 {
			continue
		}

		src := strings.TrimSpace(fields[0])
		port := strings.TrimSpace(fields[1])
		if src != "" && port != "" {
			if portsBySource[src] == nil {
				portsBySource[src] = map[string]struct{}{}
			}
			portsBySource[src][port] = struct{}{}
		}

		if len(fields) > 2 && strings.TrimSpace(fields[2]) != "" {
			credentialSeen = true
		}
		if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
			credentialSeen = true
		}
	}

	for src, ports := range portsBySource {
		if len(ports) <= portScanThreshold {
			continue
		}
		report.Alerts = append(report.Alerts, &model.Alert{
			ID:         types.NewAlertID(),
			Type:       types.AlertIntrusion,
			Severity:   types.SeverityHigh,
			Message:    fmt.Sprintf("Port scan detected from %s (%d ports probed)", src, len(ports)),
			Source:     src,
			SourceIP:   src,
			SourceTool: types.ToolTShark,
			Timestamp:  now,
			Details: map[string]any{
				"ports_scanned": len(ports),
				"interface":     target,
			},
		})
	}

	if credentialSeen {
		report.Alerts = append(report.Alerts, &model.Alert{
			ID:         types.NewAlertID(),
			Type:       types.AlertPolicyViolation,
			Severity:   types.SeverityHigh,
			Message:    "Unencrypted credentials detected in network traffic",
			Source:     "tshark_analyzer",
			SourceTool: types.ToolTShark,
			Timestamp:  now,
			Details: map[string]any{
				"interface": target,
			},
		})
	}

	return report, nil
}
