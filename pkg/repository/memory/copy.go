package memory

import "github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"

// Deep copies keep callers from mutating stored state through returned
// pointers.

func copyTool(src *model.Tool) *model.Tool {
	dst := *src
	return &dst
}

func copyScanJob(src *model.ScanJob) *model.ScanJob {
	dst := *src
	return &dst
}

func copyFinding(src *model.Finding) *model.Finding {
	dst := *src
	if src.CVSSScore != nil {
		score := *src.CVSSScore
		dst.CVSSScore = &score
	}
	return &dst
}

func copyAlert(src *model.Alert) *model.Alert {
	dst := *src
	if src.Details != nil {
		dst.Details = copyValue(src.Details).(map[string]any)
	}
	return &dst
}

// copyValue recurses into the container types that alert details are built
// from. Anything else is a value type and is shared as-is.
func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		dst := make(map[string]any, len(v))
		for k, e := range v {
			dst[k] = copyValue(e)
		}
		return dst
	case []any:
		dst := make([]any, len(v))
		for i, e := range v {
			dst[i] = copyValue(e)
		}
		return dst
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func copySchedule(src *model.Schedule) *model.Schedule {
	dst := *src
	if src.LastRun != nil {
		last := *src.LastRun
		dst.LastRun = &last
	}
	if src.NextRun != nil {
		next := *src.NextRun
		dst.NextRun = &next
	}
	return &dst
}

func copyNetworkHost(src *model.NetworkHost) *model.NetworkHost {
	dst := *src
	dst.OpenPorts = append([]model.HostPort(nil), src.OpenPorts...)
	dst.Services = append([]model.HostService(nil), src.Services...)
	return &dst
}
