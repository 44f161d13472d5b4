package model

import (
	"time"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Tool is the per-tool availability projection. One record exists per
// distinct external tool, created lazily on first reference. Only the tool
// status tracker mutates it.
type Tool struct {
	Name         types.ToolName
	Status       types.ToolStatus
	LastScanTime time.Time
	ScanCount    int
	LastError    string
	UpdatedAt    time.Time
}
