package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/repository"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

type database struct {
	mu        sync.RWMutex
	tools     map[types.ToolName]*model.Tool
	jobs      map[types.JobID]*model.ScanJob
	findings  map[types.DedupKey]*model.Finding
	alerts    map[types.AlertID]*model.Alert
	schedules map[types.ScheduleID]*model.Schedule
	hosts     map[string]*model.NetworkHost
}

// Tool operations

func (r *database) GetOrCreateTool(ctx context.Context, name types.ToolName) (*model.Tool, error) {
	if !name.IsValid() {
		return nil, goerr.Wrap(repository.ErrInvalidInput, "unknown tool name", goerr.V("name", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tool, exists := r.tools[name]; exists {
		return copyTool(tool), nil
	}

	tool := &model.Tool{
		Name:      name,
		Status:    types.ToolStatusInactive,
		UpdatedAt: logging.CtxTime(ctx),
	}
	r.tools[name] = tool

	return copyTool(tool), nil
}

func (r *database) UpdateTool(ctx context.Context, tool *model.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; !exists {
		return goerr.Wrap(repository.ErrNotFound, "tool not found", goerr.V("name", tool.Name))
	}
	r.tools[tool.Name] = copyTool(tool)

	return nil
}

func (r *database) ListTools(ctx context.Context) ([]*model.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tools []*model.Tool
	for _, name := range types.AllToolNames() {
		if tool, exists := r.tools[name]; exists {
			tools = append(tools, copyTool(tool))
		}
	}

	return tools, nil
}

// ScanJob operations

func (r *database) PutScanJob(ctx context.Context, job *model.ScanJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = copyScanJob(job)

	return nil
}

func (r *database) GetScanJob(ctx context.Context, id types.JobID) (*model.ScanJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "scan job not found", goerr.V("id", id))
	}

	return copyScanJob(job), nil
}

func (r *database) ListScanJobs(ctx context.Context) ([]*model.ScanJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*model.ScanJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, copyScanJob(job))
	}

	return jobs, nil
}

// Finding operations

func (r *database) CreateFindingIfNew(ctx context.Context, finding *model.Finding) (bool, error) {
	if err := finding.Validate(); err != nil {
		return false, goerr.Wrap(repository.ErrInvalidInput, "invalid finding", goerr.V("cause", err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.findings[finding.DedupKey]; exists {
		return false, nil
	}
	r.findings[finding.DedupKey] = copyFinding(finding)

	return true, nil
}

func (r *database) ListFindings(ctx context.Context) ([]*model.Finding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	findings := make([]*model.Finding, 0, len(r.findings))
	for _, finding := range r.findings {
		findings = append(findings, copyFinding(finding))
	}

	return findings, nil
}

func (r *database) UpdateFindingStatus(ctx context.Context, key types.DedupKey, status types.FindingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	finding, exists := r.findings[key]
	if !exists {
		return goerr.Wrap(repository.ErrNotFound, "finding not found", goerr.V("dedupKey", key))
	}
	finding.Status = status
	finding.UpdatedAt = logging.CtxTime(ctx)

	return nil
}

// Alert operations

func (r *database) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if err := alert.Validate(); err != nil {
		return goerr.Wrap(repository.ErrInvalidInput, "invalid alert", goerr.V("cause", err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.ID == "" {
		alert.ID = types.NewAlertID()
	}
	r.alerts[alert.ID] = copyAlert(alert)

	return nil
}

func (r *database) ListAlerts(ctx context.Context) ([]*model.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alerts := make([]*model.Alert, 0, len(r.alerts))
	for _, alert := range r.alerts {
		alerts = append(alerts, copyAlert(alert))
	}

	return alerts, nil
}

func (r *database) AcknowledgeAlert(ctx context.Context, id types.AlertID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, exists := r.alerts[id]
	if !exists {
		return goerr.Wrap(repository.ErrNotFound, "alert not found", goerr.V("id", id))
	}
	alert.Acknowledged = true

	return nil
}

// Schedule operations

func (r *database) CreateSchedule(ctx context.Context, schedule *model.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return goerr.Wrap(repository.ErrInvalidInput, "invalid schedule", goerr.V("cause", err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if schedule.ID == "" {
		schedule.ID = types.NewScheduleID()
	}
	if _, exists := r.schedules[schedule.ID]; exists {
		return goerr.Wrap(repository.ErrAlreadyExists, "schedule already exists", goerr.V("id", schedule.ID))
	}
	r.schedules[schedule.ID] = copySchedule(schedule)

	return nil
}

func (r *database) GetSchedule(ctx context.Context, id types.ScheduleID) (*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, exists := r.schedules[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "schedule not found", goerr.V("id", id))
	}

	return copySchedule(schedule), nil
}

func (r *database) ListActiveSchedules(ctx context.Context) ([]*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var schedules []*model.Schedule
	for _, schedule := range r.schedules {
		if schedule.IsActive {
			schedules = append(schedules, copySchedule(schedule))
		}
	}

	return schedules, nil
}

func (r *database) UpdateSchedule(ctx context.Context, schedule *model.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[schedule.ID]; !exists {
		return goerr.Wrap(repository.ErrNotFound, "schedule not found", goerr.V("id", schedule.ID))
	}
	r.schedules[schedule.ID] = copySchedule(schedule)

	return nil
}

// NetworkHost operations

func (r *database) UpsertNetworkHost(ctx context.Context, host *model.NetworkHost) error {
	if host.IPAddress == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "host IP address is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.hosts[host.IPAddress]; exists {
		// FirstSeen survives re-discovery
		updated := copyNetworkHost(host)
		updated.FirstSeen = existing.FirstSeen
		r.hosts[host.IPAddress] = updated
		return nil
	}
	r.hosts[host.IPAddress] = copyNetworkHost(host)

	return nil
}

func (r *database) ListNetworkHosts(ctx context.Context) ([]*model.NetworkHost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hosts := make([]*model.NetworkHost, 0, len(r.hosts))
	for _, host := range r.hosts {
		hosts = append(hosts, copyNetworkHost(host))
	}

	return hosts, nil
}

// Metrics

func (r *database) Metrics(ctx context.Context) (*model.SecurityMetrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metrics := &model.SecurityMetrics{
		OpenFindingsBySeverity: make(map[types.Severity]int),
		GeneratedAt:            logging.CtxTime(ctx),
	}

	for _, finding := range r.findings {
		if finding.Status == types.FindingStatusOpen {
			metrics.OpenFindingsBySeverity[finding.Severity]++
		}
	}
	for _, alert := range r.alerts {
		if !alert.Acknowledged {
			metrics.UnacknowledgedAlerts++
		}
	}

	return metrics, nil
}
