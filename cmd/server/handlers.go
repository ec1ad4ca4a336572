package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/learn-tracker/internal/apperr"
	"github.com/p-n-ai/learn-tracker/internal/curriculum"
	"github.com/p-n-ai/learn-tracker/internal/progress"
	"github.com/p-n-ai/learn-tracker/internal/session"
	"github.com/p-n-ai/learn-tracker/internal/stats"
)

const (
	maxBodyBytes = 1 << 20
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// newMux creates the HTTP router with health checks, the JSON API and the
// live feed.
func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("GET /api/users", a.handleUsers)
	mux.HandleFunc("GET /api/curriculum", a.handleCurriculum)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("GET /api/stats/export.xlsx", a.handleStatsExport)

	const user = "/api/users/{user}"
	const subtopic = user + "/categories/{cat}/topics/{topic}/subtopics/{subtopic}"
	mux.HandleFunc("GET "+user+"/progress", a.handleProgress)
	mux.HandleFunc("GET "+user+"/dashboard", a.handleDashboard)
	mux.HandleFunc("POST "+user+"/save", a.handleSave)
	mux.HandleFunc("DELETE "+user+"/session", a.handleCloseSession)
	mux.HandleFunc("PUT "+user+"/categories/{cat}/completed", a.handleCategoryCompleted)
	mux.HandleFunc("PUT "+user+"/categories/{cat}/topics/{topic}/subtopics", a.handleSetSubtopics)
	mux.HandleFunc("PUT "+subtopic+"/done", a.handleToggleSubtopic)
	mux.HandleFunc("POST "+subtopic+"/resources", a.handleAddResource)
	mux.HandleFunc("DELETE "+subtopic+"/resources/{index}", a.handleRemoveResource)
	mux.HandleFunc("PUT "+subtopic+"/notes", a.handleEditNotes)

	mux.HandleFunc("GET /ws", a.handleFeed)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range a.checks {
		if err := c.check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "failed": c.name})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (a *app) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.roster.Users())
}

func (a *app) handleCurriculum(w http.ResponseWriter, r *http.Request) {
	c, err := a.curricula.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*curriculum.Curriculum
		Totals curriculum.Totals `json:"totals"`
	}{c, c.Totals()})
}

func (a *app) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := a.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *app) handleStatsExport(w http.ResponseWriter, r *http.Request) {
	snap, err := a.stats.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := stats.WriteXLSX(&buf, snap, a.roster.IDs()); err != nil {
		writeError(w, fmt.Errorf("exporting stats: %w", err))
		return
	}
	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="learning-stats-%s.xlsx"`, snap.GeneratedAt.Format(progress.DateLayout)))
	w.Write(buf.Bytes())
}

func (a *app) handleProgress(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// dashboardResponse reflects the session's state, including unsaved edits.
type dashboardResponse struct {
	UserID       string               `json:"user_id"`
	Name         string               `json:"name"`
	StartedDate  string               `json:"started_date"`
	DaysLearning int                  `json:"days_learning"`
	Overall      progress.Overall     `json:"overall"`
	Totals       curriculum.Totals    `json:"totals"`
	Categories   []stats.DashboardRow `json:"categories"`
	Dirty        bool                 `json:"dirty"`
}

func (a *app) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	v := s.View()
	writeJSON(w, http.StatusOK, dashboardResponse{
		UserID:       v.UserID,
		Name:         v.Name,
		StartedDate:  v.Progress.StartedDate,
		DaysLearning: v.DaysLearning,
		Overall:      v.Overall,
		Totals:       v.Curriculum.Totals(),
		Categories:   stats.Dashboard(v.Curriculum, v.Progress),
		Dirty:        v.Dirty,
	})
}

func (a *app) handleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := s.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// handleCloseSession drops the user's open session and its unsaved edits.
// The next request reopens it from the stores.
func (a *app) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if _, err := a.roster.Get(userID); err != nil {
		writeError(w, err)
		return
	}
	discarded := a.sessions.Close(userID)
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "discarded": discarded})
}

func (a *app) handleCategoryCompleted(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Completed bool `json:"completed"`
	}
	a.mutate(w, r, &body, func(s *session.Session) error {
		return s.SetCategoryCompleted(r.PathValue("cat"), body.Completed)
	})
}

func (a *app) handleSetSubtopics(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Completed []string `json:"completed"`
	}
	a.mutate(w, r, &body, func(s *session.Session) error {
		return s.SetCompletedSubtopics(r.PathValue("cat"), r.PathValue("topic"), body.Completed)
	})
}

func (a *app) handleToggleSubtopic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Done bool `json:"done"`
	}
	a.mutate(w, r, &body, func(s *session.Session) error {
		return s.ToggleSubtopic(r.PathValue("cat"), r.PathValue("topic"), r.PathValue("subtopic"), body.Done)
	})
}

func (a *app) handleAddResource(w http.ResponseWriter, r *http.Request) {
	var body curriculum.Resource
	a.mutate(w, r, &body, func(s *session.Session) error {
		return s.AddResource(r.PathValue("cat"), r.PathValue("topic"), r.PathValue("subtopic"), body)
	})
}

func (a *app) handleRemoveResource(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, apperr.Invalid("index", "must be an integer"))
		return
	}
	a.mutate(w, r, nil, func(s *session.Session) error {
		return s.RemoveResource(r.PathValue("cat"), r.PathValue("topic"), r.PathValue("subtopic"), index)
	})
}

func (a *app) handleEditNotes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	a.mutate(w, r, &body, func(s *session.Session) error {
		return s.EditNotes(r.PathValue("cat"), r.PathValue("topic"), r.PathValue("subtopic"), body.Notes)
	})
}

// session opens the session for the {user} path value, writing the error
// response itself when that fails.
func (a *app) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := a.sessions.Open(r.Context(), r.PathValue("user"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// mutate decodes body (when non-nil), applies fn to the user's session and
// responds with the updated view.
func (a *app) mutate(w http.ResponseWriter, r *http.Request, body any, fn func(*session.Session) error) {
	if body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			writeError(w, apperr.Invalid("body", err.Error()))
			return
		}
	}
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy to a status code.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &nf):
		status = http.StatusNotFound
	default:
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
