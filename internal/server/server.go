// Package server exposes the onboarding agent over HTTP: POST /chat for
// conversational turns and PATCH /state for direct field edits.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kayz/tomo/internal/agent"
	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/catalog"
	"github.com/kayz/tomo/internal/flow"
	"github.com/kayz/tomo/internal/logger"
)

type Server struct {
	agent     *agent.Agent
	sessions  *Sessions
	startedAt time.Time
}

func NewServer(a *agent.Agent, sessions *Sessions) *Server {
	return &Server{
		agent:     a,
		sessions:  sessions,
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Message == "" && !req.Auto {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)
	sess.Lock()
	defer sess.Unlock()

	reply := s.agent.Respond(r.Context(), &sess.State, req.Message, req.Auto)

	s.sessions.Persist(sess)
	if req.Message != "" {
		s.sessions.Record(sess.ID, "user", req.Message)
	}
	s.sessions.Record(sess.ID, "assistant", reply.Message)

	logger.Debugf("chat %s: step=%s mode=%s", sess.ID, sess.State.CurrentStep, reply.Mode)
	writeJSON(w, http.StatusOK, api.ChatResponse{
		SessionID: sess.ID,
		State:     sess.State,
		Response:  reply,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req api.PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	sess := s.sessions.Get(req.SessionID)
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	sess.Lock()
	defer sess.Unlock()

	// Direct edits update answers in place; they never move current_step.
	changed := flow.ApplyUpdates(&sess.State, req.Updates)
	if len(changed) > 0 {
		// The edit enters the transcript as a synthetic exchange so later
		// turns see what the form changed.
		var lines []string
		for _, key := range changed {
			field, _ := catalog.FieldByKey(key)
			lines = append(lines, fmt.Sprintf("%s = %s", field.Label, flow.DisplayValue(sess.State.AnswerFor(key))))
		}
		s.sessions.Record(sess.ID, "user", "I updated my answers: "+strings.Join(lines, "; "))
		s.sessions.Record(sess.ID, "assistant", "Noted, your answers are updated.")
	}
	s.sessions.Persist(sess)

	logger.Debugf("patch %s: %d field(s) updated", sess.ID, len(changed))
	writeJSON(w, http.StatusOK, api.PatchResponse{
		State:        sess.State,
		NextQuestion: flow.NextQuestion(sess.State),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
