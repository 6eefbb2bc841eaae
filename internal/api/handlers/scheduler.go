package handlers

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/scheduler"
)

// SchedulerHandler handles scheduler control requests
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
	updates   *controllers.UpdateController
	history   *controllers.HistoryLog
	logger    *logrus.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(sched *scheduler.Scheduler, updates *controllers.UpdateController, history *controllers.HistoryLog, logger *logrus.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: sched,
		updates:   updates,
		history:   history,
		logger:    logger,
	}
}

// Trigger runs the update pipeline immediately
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	result, err := h.scheduler.TriggerNow(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Manual update failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, "update complete", result)
}

// Reload swaps the cron expression at runtime
func (h *SchedulerHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Cron string `json:"cron"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Cron == "" {
		writeError(w, http.StatusBadRequest, "cron expression is required")
		return
	}

	if err := h.scheduler.Reload(req.Cron); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeSuccess(w, "scheduler reloaded", h.scheduler.Status())
}

// Status reports the scheduler state
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

// History lists recent run records
func (h *SchedulerHandler) History(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.history.Latest(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read run history")
		writeError(w, http.StatusInternalServerError, "failed to read run history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// UpdateWeek rebuilds a stored week against the current library
func (h *SchedulerHandler) UpdateWeek(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Year int `json:"year"`
		Week int `json:"week"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Year == 0 || req.Week < 1 || req.Week > 53 {
		writeError(w, http.StatusBadRequest, "valid year and week are required")
		return
	}

	result, err := h.updates.RunWeek(r.Context(), req.Year, req.Week)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeSuccess(w, "week updated", result)
}
