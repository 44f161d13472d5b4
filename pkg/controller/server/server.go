package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/types"
	"github.com/Salmaelayeb/sentinel-hub/pkg/repository"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/errutil"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/logging"
)

type Server struct {
	mux *chi.Mux
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		logging.Default().Error("fail to encode response", slog.Any("error", err))
		safeWrite(w, http.StatusInternalServerError, []byte(`{"error":"encoding failure"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safeWrite(w, code, raw)
}

func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.HandleError(r.Context(), msg, err)

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrScheduleConflict):
		code = http.StatusConflict
	case errors.Is(err, types.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, types.ErrValidationFailed), errors.Is(err, repository.ErrInvalidInput):
		code = http.StatusBadRequest
	}

	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func New(uc interfaces.UseCase, db interfaces.Database) *Server {
	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safeWrite(w, http.StatusOK, []byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/schedules", func(w http.ResponseWriter, r *http.Request) {
			var req scheduleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			schedule := req.toModel(logging.CtxTime(r.Context()))
			if err := schedule.Validate(); err != nil {
				writeError(w, r, "invalid schedule", err)
				return
			}
			if err := db.CreateSchedule(r.Context(), schedule); err != nil {
				writeError(w, r, "fail to create schedule", err)
				return
			}
			writeJSON(w, http.StatusCreated, newScheduleResponse(schedule))
		})

		r.Get("/schedules", func(w http.ResponseWriter, r *http.Request) {
			schedules, err := db.ListActiveSchedules(r.Context())
			if err != nil {
				writeError(w, r, "fail to list schedules", err)
				return
			}
			resp := make([]*scheduleResponse, 0, len(schedules))
			for _, schedule := range schedules {
				resp = append(resp, newScheduleResponse(schedule))
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Route("/schedules/{scheduleID}", func(r chi.Router) {
			r.Post("/run", func(w http.ResponseWriter, r *http.Request) {
				id := types.ScheduleID(chi.URLParam(r, "scheduleID"))
				job, err := uc.TriggerNow(r.Context(), id)
				if err != nil {
					writeError(w, r, "fail to trigger scan", err)
					return
				}
				writeJSON(w, http.StatusAccepted, newJobResponse(job))
			})
			r.Post("/toggle", func(w http.ResponseWriter, r *http.Request) {
				id := types.ScheduleID(chi.URLParam(r, "scheduleID"))
				schedule, err := uc.ToggleSchedule(r.Context(), id)
				if err != nil {
					writeError(w, r, "fail to toggle schedule", err)
					return
				}
				writeJSON(w, http.StatusOK, newScheduleResponse(schedule))
			})
		})

		r.Post("/scans", func(w http.ResponseWriter, r *http.Request) {
			var req scanRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			job, err := uc.DispatchScan(r.Context(), types.ToolName(req.Tool), req.Target, req.Mode)
			if err != nil {
				writeError(w, r, "fail to dispatch scan", err)
				return
			}
			writeJSON(w, http.StatusAccepted, newJobResponse(job))
		})

		r.Get("/jobs", func(w http.ResponseWriter, r *http.Request) {
			jobs, err := db.ListScanJobs(r.Context())
			if err != nil {
				writeError(w, r, "fail to list scan jobs", err)
				return
			}
			resp := make([]*jobResponse, 0, len(jobs))
			for _, job := range jobs {
				resp = append(resp, newJobResponse(job))
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/tools", func(w http.ResponseWriter, r *http.Request) {
			tools, err := db.ListTools(r.Context())
			if err != nil {
				writeError(w, r, "fail to list tools", err)
				return
			}
			resp := make([]*toolResponse, 0, len(tools))
			for _, tool := range tools {
				resp = append(resp, newToolResponse(tool))
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/findings", func(w http.ResponseWriter, r *http.Request) {
			findings, err := db.ListFindings(r.Context())
			if err != nil {
				writeError(w, r, "fail to list findings", err)
				return
			}
			resp := make([]*findingResponse, 0, len(findings))
			for _, finding := range findings {
				resp = append(resp, newFindingResponse(finding))
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/hosts", func(w http.ResponseWriter, r *http.Request) {
			hosts, err := db.ListNetworkHosts(r.Context())
			if err != nil {
				writeError(w, r, "fail to list network hosts", err)
				return
			}
			writeJSON(w, http.StatusOK, hosts)
		})

		r.Get("/alerts", func(w http.ResponseWriter, r *http.Request) {
			alerts, err := db.ListAlerts(r.Context())
			if err != nil {
				writeError(w, r, "fail to list alerts", err)
				return
			}
			resp := make([]*alertResponse, 0, len(alerts))
			for _, alert := range alerts {
				resp = append(resp, newAlertResponse(alert))
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Post("/alerts/{alertID}/ack", func(w http.ResponseWriter, r *http.Request) {
			id := types.AlertID(chi.URLParam(r, "alertID"))
			if err := uc.AcknowledgeAlert(r.Context(), id); err != nil {
				writeError(w, r, "fail to acknowledge alert", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
		})

		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics, err := db.Metrics(r.Context())
			if err != nil {
				writeError(w, r, "fail to build metrics", err)
				return
			}
			writeJSON(w, http.StatusOK, metrics)
		})
	})

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}
