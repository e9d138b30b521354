// Package web serves the JSON API the browser planner UI talks to. The UI
// assets themselves are built and served separately; this side only owns
// state and behavior.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"dayflow/internal/config"
	"dayflow/internal/generate"
	"dayflow/internal/ics"
	appLog "dayflow/internal/log"
	"dayflow/internal/model"
	"dayflow/internal/notify"
	"dayflow/internal/parse"
	"dayflow/internal/reminder"
	"dayflow/internal/store"
	"dayflow/internal/timeparse"
)

// Server wires the schedule store, the generation client, the reminder
// scheduler and the notification center behind HTTP handlers.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	gen    generate.Generator
	rem    *reminder.Scheduler
	center *notify.Center
	loc    *time.Location
	mux    *http.ServeMux
	now    func() time.Time
	genMu  sync.Mutex
}

// NewServer constructs a Server.
func NewServer(cfg *config.Config, st *store.Store, gen generate.Generator, rem *reminder.Scheduler, center *notify.Center) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		gen:    gen,
		rem:    rem,
		center: center,
		loc:    cfg.Location(),
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Dayflow", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("PATCH /api/blocks/{id}/tasks/{index}", s.handleTaskPatch)
	s.mux.HandleFunc("DELETE /api/blocks/{id}/tasks/{index}", s.handleTaskDelete)
	s.mux.HandleFunc("POST /api/reorder", s.handleReorder)
	s.mux.HandleFunc("POST /api/complete", s.handleComplete)
	s.mux.HandleFunc("POST /api/clear-completed", s.handleClearCompleted)
	s.mux.HandleFunc("PUT /api/muted", s.handleMuted)
	s.mux.HandleFunc("GET /api/permission", s.handlePermissionGet)
	s.mux.HandleFunc("PUT /api/permission", s.handlePermissionPut)
	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	s.mux.HandleFunc("GET /api/blocks/{id}/export", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// blockDTO is the JSON view of a block, with per-block progress computed
// server-side so the UI's progress tick is a plain re-fetch.
type blockDTO struct {
	ID        int          `json:"id"`
	Time      string       `json:"time"`
	Title     string       `json:"title"`
	Tasks     []model.Task `json:"tasks"`
	Uncertain bool         `json:"uncertain,omitempty"`
	// Progress is the elapsed fraction of the block in [0,1]; null when
	// the time range does not parse.
	Progress *float64 `json:"progress"`
}

type scheduleResponse struct {
	Blocks     []blockDTO       `json:"blocks"`
	Completion model.Completion `json:"completion"`
	Muted      bool             `json:"muted"`
	Timezone   string           `json:"timezone"`
}

func (s *Server) scheduleResponse() scheduleResponse {
	sched := s.store.Schedule()
	now := s.now().In(s.loc)

	blocks := make([]blockDTO, 0, len(sched))
	for _, b := range sched {
		dto := blockDTO{
			ID:        b.ID,
			Time:      b.Time,
			Title:     b.Title,
			Tasks:     b.Tasks,
			Uncertain: b.Uncertain,
		}
		if start, end, ok := timeparse.Range(b.Time, now, s.loc); ok {
			if p, ok := timeparse.Progress(start, end, now); ok {
				dto.Progress = &p
			}
		}
		blocks = append(blocks, dto)
	}

	return scheduleResponse{
		Blocks:     blocks,
		Completion: s.store.Completion(),
		Muted:      s.store.Muted(),
		Timezone:   s.loc.String(),
	}
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	// One generation at a time; the UI disables re-trigger while pending
	// and this guard backs that up.
	s.genMu.Lock()
	defer s.genMu.Unlock()

	markdown, err := s.gen.Generate(r.Context(), req.Prompt)
	if err != nil {
		// Prior schedule state is left untouched on any failure.
		appLog.Error("generate failed", err)
		writeError(w, http.StatusBadGateway, generate.ErrGeneration.Error())
		return
	}

	sched := parse.Schedule(markdown)
	s.store.Replace(sched)
	s.rem.Reset()

	appLog.Info("schedule generated", "blocks", len(sched), "tasks", sched.TaskCount())
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleTaskPatch(w http.ResponseWriter, r *http.Request) {
	blockID, taskIndex, ok := taskPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad block id or task index")
		return
	}

	var req struct {
		Text  *string `json:"text"`
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	if req.Text == nil && req.Notes == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Text != nil {
		s.store.UpdateTaskText(blockID, taskIndex, *req.Text)
	}
	if req.Notes != nil {
		s.store.UpdateTaskNotes(blockID, taskIndex, *req.Notes)
	}
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	blockID, taskIndex, ok := taskPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad block id or task index")
		return
	}
	s.store.DeleteTask(blockID, taskIndex)
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source      store.Position `json:"source"`
		Destination store.Position `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	s.store.Reorder(req.Source, req.Destination)
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID string `json:"taskId"`
		Done   bool   `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == "" {
		writeError(w, http.StatusBadRequest, "taskId is required")
		return
	}
	s.store.SetDone(req.TaskID, req.Done)
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearCompleted()
	writeJSON(w, http.StatusOK, s.scheduleResponse())
}

func (s *Server) handleMuted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Muted bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	s.store.SetMuted(req.Muted)
	writeJSON(w, http.StatusOK, map[string]bool{"muted": req.Muted})
}

func (s *Server) handlePermissionGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"permission": s.center.Permission().String(),
	})
}

func (s *Server) handlePermissionPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permission string `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	p, ok := reminder.ParsePermission(req.Permission)
	if !ok {
		writeError(w, http.StatusBadRequest, "permission must be default, granted or denied")
		return
	}
	s.center.SetPermission(p)
	appLog.Info("notification permission updated", "permission", p.String())
	writeJSON(w, http.StatusOK, map[string]string{"permission": p.String()})
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	pending, cue := s.center.Drain()
	if pending == nil {
		pending = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": pending,
		"cue":           cue,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blockID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad block id")
		return
	}

	sched := s.store.Schedule()
	bi := sched.Find(blockID)
	if bi < 0 {
		writeError(w, http.StatusNotFound, "block not found")
		return
	}
	block := sched[bi]

	repeat := 0
	if v := r.URL.Query().Get("repeat"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			repeat = n
		}
	}

	doc, err := ics.Event(block, s.now().In(s.loc), s.loc, ics.Options{RepeatDays: repeat})
	if err != nil {
		if errors.Is(err, ics.ErrTimeUnparseable) {
			writeError(w, http.StatusUnprocessableEntity, "block time range is not parseable; cannot export")
			return
		}
		appLog.Error("calendar export failed", err, "block", blockID)
		writeError(w, http.StatusInternalServerError, "calendar export failed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ics.Filename(block.Title)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// taskPath pulls the {id}/{index} pair out of the request path.
func taskPath(r *http.Request) (blockID, taskIndex int, ok bool) {
	blockID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, 0, false
	}
	taskIndex, err = strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, 0, false
	}
	return blockID, taskIndex, true
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
