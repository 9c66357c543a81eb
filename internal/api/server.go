package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kairodev/kairo/internal/agent"
	"github.com/kairodev/kairo/internal/config"
	kairoErrors "github.com/kairodev/kairo/internal/errors"
	"github.com/kairodev/kairo/internal/runstream"
	"github.com/kairodev/kairo/internal/skill"
	"github.com/kairodev/kairo/internal/timeline"
)

// Service is the agent surface the HTTP layer needs.
type Service interface {
	Run(ctx context.Context, threadID, text string, opts ...agent.RunOption) runstream.Source
	SystemPrompt() string
}

// Server exposes the run stream over HTTP: JSON endpoints for health,
// skills and the composed prompt, and an SSE bridge that relays one
// agent run per request while folding the same events into the shared
// timeline.
type Server struct {
	svc       Service
	skills    *skill.Registry
	timelines *timeline.Manager
	cfg       config.Config
	server    *http.Server
}

func NewServer(cfg config.Config, svc Service, skills *skill.Registry, timelines *timeline.Manager) *Server {
	mux := http.NewServeMux()
	s := &Server{
		svc:       svc,
		skills:    skills,
		timelines: timelines,
		cfg:       cfg,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/skills", s.handleSkills)
	mux.HandleFunc("/api/prompt", s.handlePrompt)
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("Starting API server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	configured := false
	for _, entry := range s.cfg.Models.Registry {
		if entry.APIKey != "" {
			configured = true
			break
		}
	}
	writeJSON(w, map[string]any{
		"status":                     "ok",
		"model":                      s.cfg.Models.Default,
		"api_credentials_configured": configured,
	})
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type skillInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Path        string `json:"path"`
	}
	infos := []skillInfo{}
	for _, sk := range s.skills.List() {
		infos = append(infos, skillInfo{Name: sk.Name, Description: sk.Description, Path: sk.Path})
	}
	writeJSON(w, map[string]any{"skills": infos})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"prompt": s.svc.SystemPrompt()})
}

// handleChatStream runs one agent turn and relays its normalized
// events as SSE frames. The same events are folded into the thread's
// timeline so a later restore sees what the stream consumer saw.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	message := r.URL.Query().Get("message")
	if message == "" {
		http.Error(w, "Missing required query parameter: message", http.StatusBadRequest)
		return
	}
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		threadID = "default"
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	thread := s.timelines.Thread(threadID)
	if _, err := thread.Submit(message); err != nil {
		if errors.Is(err, kairoErrors.ErrThreadBusy) {
			http.Error(w, "Thread is busy with another run", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to start run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	src := s.svc.Run(r.Context(), threadID, message)
	session := runstream.NewSession(threadID, src, func(evt runstream.Event) {
		thread.Apply(evt)
		writeFrame(w, flusher, evt)
	})
	session.Start()

	select {
	case <-session.Done():
	case <-r.Context().Done():
		session.Cancel()
		session.Wait()
	}
}

// writeFrame encodes one event as an SSE frame. Failures are stream
// errors the run itself must not notice; they end the response only.
func writeFrame(w http.ResponseWriter, flusher http.Flusher, evt runstream.Event) {
	kind, payload := frameFor(evt)
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode SSE frame", "kind", kind, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, data)
	flusher.Flush()
}

func frameFor(evt runstream.Event) (string, map[string]any) {
	switch e := evt.(type) {
	case runstream.Thinking:
		return "thinking", map[string]any{"content": e.Content}
	case runstream.Text:
		return "text", map[string]any{"content": e.Content}
	case runstream.ToolCall:
		payload := map[string]any{"id": e.ID, "name": e.Name}
		if e.Args != nil {
			payload["args"] = e.Args
		}
		if e.ArgsDelta != "" {
			payload["partial_json"] = e.ArgsDelta
		}
		return "tool_call", payload
	case runstream.ToolResult:
		payload := map[string]any{
			"name":        e.Name,
			"content":     e.Content,
			"tool_use_id": e.ToolUseID,
		}
		if e.Success != nil {
			payload["success"] = *e.Success
		}
		return "tool_result", payload
	case runstream.Done:
		return "done", map[string]any{"response": e.Response}
	case runstream.RunError:
		return "agent_error", map[string]any{"message": e.Message}
	}
	return "unknown", map[string]any{}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
