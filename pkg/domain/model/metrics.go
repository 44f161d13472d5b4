package model

import (
	"time"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// SecurityMetrics is a point-in-time aggregation over the store: open
// findings broken down by severity plus the count of unacknowledged alerts.
type SecurityMetrics struct {
	OpenFindingsBySeverity map[types.Severity]int `json:"open_findings_by_severity"`
	UnacknowledgedAlerts   int                    `json:"unacknowledged_alerts"`
	GeneratedAt            time.Time              `json:"generated_at"`
}
