package memory

import (
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// New creates a new in-memory database
func New() interfaces.Database {
	return &database{
		tools:     make(map[types.ToolName]*model.Tool),
		jobs:      make(map[types.JobID]*model.ScanJob),
		findings:  make(map[types.DedupKey]*model.Finding),
		alerts:    make(map[types.AlertID]*model.Alert),
		schedules: make(map[types.ScheduleID]*model.Schedule),
		hosts:     make(map[string]*model.NetworkHost),
	}
}
