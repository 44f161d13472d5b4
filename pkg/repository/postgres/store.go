package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/model"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/repository"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

// Tool operations

func (r *database) GetOrCreateTool(ctx context.Context, name types.ToolName) (*model.Tool, error) {
	if !name.IsValid() {
		return nil, goerr.Wrap(repository.ErrInvalidInput, "unknown tool name", goerr.V("name", name))
	}

	now := logging.CtxTime(ctx)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tools (name, status, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, types.ToolStatusInactive, now,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create tool", goerr.V("name", name))
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT name, status, last_scan_time, scan_count, last_error, updated_at
		 FROM tools WHERE name = $1`, name)

	var tool model.Tool
	var lastScan sql.NullTime
	if err := row.Scan(&tool.Name, &tool.Status, &lastScan, &tool.ScanCount, &tool.LastError, &tool.UpdatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to read tool", goerr.V("name", name))
	}
	if lastScan.Valid {
		tool.LastScanTime = lastScan.Time
	}

	return &tool, nil
}

func (r *database) UpdateTool(ctx context.Context, tool *model.Tool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tools SET status = $2, last_scan_time = $3, scan_count = $4, last_error = $5, updated_at = $6
		 WHERE name = $1`,
		tool.Name, tool.Status, nullTime(tool.LastScanTime), tool.ScanCount, tool.LastError, tool.UpdatedAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update tool", goerr.V("name", tool.Name))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "tool not found", goerr.V("name", tool.Name))
	}

	return nil
}

func (r *database) ListTools(ctx context.Context) ([]*model.Tool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, status, last_scan_time, scan_count, last_error, updated_at FROM tools ORDER BY name`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}
	defer rows.Close()

	var tools []*model.Tool
	for rows.Next() {
		var tool model.Tool
		var lastScan sql.NullTime
		if err := rows.Scan(&tool.Name, &tool.Status, &lastScan, &tool.ScanCount, &tool.LastError, &tool.UpdatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan tool row")
		}
		if lastScan.Valid {
			tool.LastScanTime = lastScan.Time
		}
		tools = append(tools, &tool)
	}

	return tools, rows.Err()
}

// ScanJob operations

func (r *database) PutScanJob(ctx context.Context, job *model.ScanJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scan_jobs (id, tool, target, mode, status, started_at, ended_at, raw_output, findings_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   started_at = EXCLUDED.started_at,
		   ended_at = EXCLUDED.ended_at,
		   raw_output = EXCLUDED.raw_output,
		   findings_count = EXCLUDED.findings_count`,
		job.ID, job.Tool, job.Target, job.Mode, job.Status,
		nullTime(job.StartedAt), nullTime(job.EndedAt), job.RawOutput, job.FindingsCount, job.CreatedAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put scan job", goerr.V("id", job.ID))
	}

	return nil
}

func (r *database) GetScanJob(ctx context.Context, id types.JobID) (*model.ScanJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tool, target, mode, status, started_at, ended_at, raw_output, findings_count, created_at
		 FROM scan_jobs WHERE id = $1`, id)

	job, err := scanJobFromRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(repository.ErrNotFound, "scan job not found", goerr.V("id", id))
	}
	return job, err
}

func (r *database) ListScanJobs(ctx context.Context) ([]*model.ScanJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tool, target, mode, status, started_at, ended_at, raw_output, findings_count, created_at
		 FROM scan_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list scan jobs")
	}
	defer rows.Close()

	var jobs []*model.ScanJob
	for rows.Next() {
		job, err := scanJobFromRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanJobFromRow(scan func(...any) error) (*model.ScanJob, error) {
	var job model.ScanJob
	var startedAt, endedAt sql.NullTime
	if err := scan(&job.ID, &job.Tool, &job.Target, &job.Mode, &job.Status,
		&startedAt, &endedAt, &job.RawOutput, &job.FindingsCount, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to scan job row")
	}
	if startedAt.Valid {
		job.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		job.EndedAt = endedAt.Time
	}
	return &job, nil
}

// Finding operations

func (r *database) CreateFindingIfNew(ctx context.Context, finding *model.Finding) (bool, error) {
	if err := finding.Validate(); err != nil {
		return false, goerr.Wrap(repository.ErrInvalidInput, "invalid finding", goerr.V("cause", err.Error()))
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO findings (dedup_key, title, description, severity, cvss_score, external_id, asset, port, service, source_tool, status, discovered_at, updated_at, remediation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (dedup_key) DO NOTHING`,
		finding.DedupKey, finding.Title, finding.Description, finding.Severity,
		finding.CVSSScore, finding.ExternalID, finding.Asset, finding.Port, finding.Service,
		finding.SourceTool, finding.Status, finding.DiscoveredAt, finding.UpdatedAt, finding.Remediation,
	)
	if err != nil {
		return false, goerr.Wrap(err, "failed to insert finding", goerr.V("dedupKey", finding.DedupKey))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to read rows affected")
	}

	return n > 0, nil
}

func (r *database) ListFindings(ctx context.Context) ([]*model.Finding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dedup_key, title, description, severity, cvss_score, external_id, asset, port, service, source_tool, status, discovered_at, updated_at, remediation
		 FROM findings ORDER BY discovered_at DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list findings")
	}
	defer rows.Close()

	var findings []*model.Finding
	for rows.Next() {
		var finding model.Finding
		var cvss sql.NullFloat64
		if err := rows.Scan(&finding.DedupKey, &finding.Title, &finding.Description, &finding.Severity,
			&cvss, &finding.ExternalID, &finding.Asset, &finding.Port, &finding.Service,
			&finding.SourceTool, &finding.Status, &finding.DiscoveredAt, &finding.UpdatedAt, &finding.Remediation); err != nil {
			return nil, goerr.Wrap(err, "failed to scan finding row")
		}
		if cvss.Valid {
			finding.CVSSScore = &cvss.Float64
		}
		findings = append(findings, &finding)
	}

	return findings, rows.Err()
}

func (r *database) UpdateFindingStatus(ctx context.Context, key types.DedupKey, status types.FindingStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE findings SET status = $2, updated_at = $3 WHERE dedup_key = $1`,
		key, status, logging.CtxTime(ctx),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update finding status", goerr.V("dedupKey", key))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "finding not found", goerr.V("dedupKey", key))
	}

	return nil
}

// Alert operations

func (r *database) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if err := alert.Validate(); err != nil {
		return goerr.Wrap(repository.ErrInvalidInput, "invalid alert", goerr.V("cause", err.Error()))
	}

	if alert.ID == "" {
		alert.ID = types.NewAlertID()
	}

	details, err := json.Marshal(alert.Details)
	if err != nil {
		return goerr.Wrap(err, "failed to encode alert details", goerr.V("id", alert.ID))
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, alert_type, severity, message, source, source_ip, destination_ip, source_tool, ts, acknowledged, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		alert.ID, alert.Type, alert.Severity, alert.Message, alert.Source,
		alert.SourceIP, alert.DestinationIP, alert.SourceTool, alert.Timestamp, alert.Acknowledged, details,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert alert", goerr.V("id", alert.ID))
	}

	return nil
}

func (r *database) ListAlerts(ctx context.Context) ([]*model.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, alert_type, severity, message, source, source_ip, destination_ip, source_tool, ts, acknowledged, details
		 FROM alerts ORDER BY ts DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list alerts")
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		var alert model.Alert
		var details []byte
		if err := rows.Scan(&alert.ID, &alert.Type, &alert.Severity, &alert.Message, &alert.Source,
			&alert.SourceIP, &alert.DestinationIP, &alert.SourceTool, &alert.Timestamp, &alert.Acknowledged, &details); err != nil {
			return nil, goerr.Wrap(err, "failed to scan alert row")
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &alert.Details); err != nil {
				return nil, goerr.Wrap(err, "failed to decode alert details", goerr.V("id", alert.ID))
			}
		}
		alerts = append(alerts, &alert)
	}

	return alerts, rows.Err()
}

func (r *database) AcknowledgeAlert(ctx context.Context, id types.AlertID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return goerr.Wrap(err, "failed to acknowledge alert", goerr.V("id", id))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "alert not found", goerr.V("id", id))
	}

	return nil
}

// Schedule operations

func (r *database) CreateSchedule(ctx context.Context, schedule *model.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return goerr.Wrap(repository.ErrInvalidInput, "invalid schedule", goerr.V("cause", err.Error()))
	}

	if schedule.ID == "" {
		schedule.ID = types.NewScheduleID()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (id, tool, target, mode, frequency, is_active, last_run, next_run, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schedule.ID, schedule.Tool, schedule.Target, schedule.Mode, schedule.Frequency,
		schedule.IsActive, schedule.LastRun, schedule.NextRun, schedule.CreatedAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert schedule", goerr.V("id", schedule.ID))
	}

	return nil
}

func (r *database) GetSchedule(ctx context.Context, id types.ScheduleID) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tool, target, mode, frequency, is_active, last_run, next_run, created_at
		 FROM schedules WHERE id = $1`, id)

	schedule, err := scheduleFromRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(repository.ErrNotFound, "schedule not found", goerr.V("id", id))
	}
	return schedule, err
}

func (r *database) ListActiveSchedules(ctx context.Context) ([]*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tool, target, mode, frequency, is_active, last_run, next_run, created_at
		 FROM schedules WHERE is_active = TRUE`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list active schedules")
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule, err := scheduleFromRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

func (r *database) UpdateSchedule(ctx context.Context, schedule *model.Schedule) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET tool = $2, target = $3, mode = $4, frequency = $5, is_active = $6, last_run = $7, next_run = $8
		 WHERE id = $1`,
		schedule.ID, schedule.Tool, schedule.Target, schedule.Mode, schedule.Frequency,
		schedule.IsActive, schedule.LastRun, schedule.NextRun,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to update schedule", goerr.V("id", schedule.ID))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return goerr.Wrap(repository.ErrNotFound, "schedule not found", goerr.V("id", schedule.ID))
	}

	return nil
}

func scheduleFromRow(scan func(...any) error) (*model.Schedule, error) {
	var schedule model.Schedule
	var lastRun, nextRun sql.NullTime
	if err := scan(&schedule.ID, &schedule.Tool, &schedule.Target, &schedule.Mode, &schedule.Frequency,
		&schedule.IsActive, &lastRun, &nextRun, &schedule.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to scan schedule row")
	}
	if lastRun.Valid {
		schedule.LastRun = &lastRun.Time
	}
	if nextRun.Valid {
		schedule.NextRun = &nextRun.Time
	}
	return &schedule, nil
}

// NetworkHost operations

func (r *database) UpsertNetworkHost(ctx context.Context, host *model.NetworkHost) error {
	if host.IPAddress == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "host IP address is empty")
	}

	openPorts, err := json.Marshal(host.OpenPorts)
	if err != nil {
		return goerr.Wrap(err, "failed to encode open ports", goerr.V("ip", host.IPAddress))
	}
	services, err := json.Marshal(host.Services)
	if err != nil {
		return goerr.Wrap(err, "failed to encode services", goerr.V("ip", host.IPAddress))
	}

	// first_seen survives re-discovery
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO network_hosts (ip_address, hostname, os_type, status, first_seen, last_seen, open_ports, services)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (ip_address) DO UPDATE SET
		   hostname = EXCLUDED.hostname,
		   os_type = EXCLUDED.os_type,
		   status = EXCLUDED.status,
		   last_seen = EXCLUDED.last_seen,
		   open_ports = EXCLUDED.open_ports,
		   services = EXCLUDED.services`,
		host.IPAddress, host.Hostname, host.OSType, host.Status,
		host.FirstSeen, host.LastSeen, openPorts, services,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to upsert network host", goerr.V("ip", host.IPAddress))
	}

	return nil
}

func (r *database) ListNetworkHosts(ctx context.Context) ([]*model.NetworkHost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ip_address, hostname, os_type, status, first_seen, last_seen, open_ports, services
		 FROM network_hosts ORDER BY ip_address`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list network hosts")
	}
	defer rows.Close()

	var hosts []*model.NetworkHost
	for rows.Next() {
		var host model.NetworkHost
		var openPorts, services []byte
		if err := rows.Scan(&host.IPAddress, &host.Hostname, &host.OSType, &host.Status,
			&host.FirstSeen, &host.LastSeen, &openPorts, &services); err != nil {
			return nil, goerr.Wrap(err, "failed to scan host row")
		}
		if len(openPorts) > 0 {
			if err := json.Unmarshal(openPorts, &host.OpenPorts); err != nil {
				return nil, goerr.Wrap(err, "failed to decode open ports", goerr.V("ip", host.IPAddress))
			}
		}
		if len(services) > 0 {
			if err := json.Unmarshal(services, &host.Services); err != nil {
				return nil, goerr.Wrap(err, "failed to decode services", goerr.V("ip", host.IPAddress))
			}
		}
		hosts = append(hosts, &host)
	}

	return hosts, rows.Err()
}

// Metrics

func (r *database) Metrics(ctx context.Context) (*model.SecurityMetrics, error) {
	metrics := &model.SecurityMetrics{
		OpenFindingsBySeverity: make(map[types.Severity]int),
		GeneratedAt:            logging.CtxTime(ctx),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM findings WHERE status = $1 GROUP BY severity`,
		types.FindingStatusOpen,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate findings")
	}
	defer rows.Close()

	for rows.Next() {
		var severity types.Severity
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, goerr.Wrap(err, "failed to scan metrics row")
		}
		metrics.OpenFindingsBySeverity[severity] = count
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate metrics rows")
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE acknowledged = FALSE`)
	if err := row.Scan(&metrics.UnacknowledgedAlerts); err != nil {
		return nil, goerr.Wrap(err, "failed to count unacknowledged alerts")
	}

	return metrics, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
