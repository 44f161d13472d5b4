package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
)

// Alert is a transient security event. Alerts are never deduplicated by the
// store; pull adapters use their own event-id watermark to avoid refetching
// the same upstream record.
type Alert struct {
	ID            types.AlertID
	Type          types.AlertType
	Severity      types.Severity
	Message       string
	Source        string
	SourceIP      string
	DestinationIP string
	SourceTool    types.ToolName
	Timestamp     time.Time
	Acknowledged  bool
	Details       map[string]any
}

func (x *Alert) Validate() error {
	if x.Message == "" {
		return goerr.Wrap(types.ErrValidationFailed, "alert message is empty")
	}
	if !x.SourceTool.IsValid() {
		return goerr.Wrap(types.ErrValidationFailed, "unknown source tool", goerr.V("tool", x.SourceTool))
	}
	return nil
}
