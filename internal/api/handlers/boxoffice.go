package handlers

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/utils"
)

// BoxOfficeHandler serves stored weekly box office pages
type BoxOfficeHandler struct {
	snapshots *controllers.SnapshotGenerator
	logger    *logrus.Logger
}

// NewBoxOfficeHandler creates a new box office handler
func NewBoxOfficeHandler(snapshots *controllers.SnapshotGenerator, logger *logrus.Logger) *BoxOfficeHandler {
	return &BoxOfficeHandler{snapshots: snapshots, logger: logger}
}

// Current serves the page for the current box office weekend
func (h *BoxOfficeHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	year, week := utils.WeekOf(time.Now())
	h.serveWeek(w, year, week)
}

// History serves the page for a specific week, from
// /api/boxoffice/history/{year}/{week}
func (h *BoxOfficeHandler) History(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/boxoffice/history/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "expected /api/boxoffice/history/{year}/{week}")
		return
	}

	year, err1 := strconv.Atoi(parts[0])
	week, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || week < 1 || week > 53 {
		writeError(w, http.StatusBadRequest, "invalid year or week")
		return
	}

	h.serveWeek(w, year, week)
}

func (h *BoxOfficeHandler) serveWeek(w http.ResponseWriter, year, week int) {
	snapshot, err := h.snapshots.Load(year, week)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "no box office data for "+utils.WeekID(year, week))
			return
		}
		h.logger.WithError(err).Error("Failed to load weekly page")
		writeError(w, http.StatusInternalServerError, "failed to load weekly page")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
