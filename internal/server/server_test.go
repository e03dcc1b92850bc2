package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kayz/tomo/internal/agent"
	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/store"
)

type noRetriever struct{}

func (noRetriever) Search(string, int) []api.Source { return nil }

func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	srv := NewServer(agent.New(noRetriever{}), NewSessions(nil))
	return srv, srv.Handler()
}

func postChat(t *testing.T, handler http.Handler, body api.ChatRequest) (*httptest.ResponseRecorder, api.ChatResponse) {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp api.ChatResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode chat response: %v", err)
		}
	}
	return rr, resp
}

func patchState(t *testing.T, handler http.Handler, body api.PatchRequest) (*httptest.ResponseRecorder, api.PatchResponse) {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPatch, "/state", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp api.PatchResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode patch response: %v", err)
		}
	}
	return rr, resp
}

func TestStatusEndpoint(t *testing.T) {
	_, handler := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "\"ok\":true") {
		t.Fatalf("unexpected status payload: %s", rr.Body.String())
	}
}

func TestAutoTurnCreatesSession(t *testing.T) {
	_, handler := testServer(t)

	rr, resp := postChat(t, handler, api.ChatRequest{Auto: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(resp.SessionID) != 12 {
		t.Fatalf("session id should be 12 hex chars, got %q", resp.SessionID)
	}
	if resp.State.CurrentStep != "profile" {
		t.Fatalf("fresh session should start at profile, got %q", resp.State.CurrentStep)
	}
	if resp.Response.NextQuestion == nil || resp.Response.NextQuestion.FieldName != "display_name" {
		t.Fatalf("auto turn should ask display_name: %#v", resp.Response.NextQuestion)
	}
}

func TestChatRequiresMessage(t *testing.T) {
	_, handler := testServer(t)

	rr, _ := postChat(t, handler, api.ChatRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUnknownSessionIDGetsReplaced(t *testing.T) {
	_, handler := testServer(t)

	rr, resp := postChat(t, handler, api.ChatRequest{Message: "Hugo", SessionID: "deadbeef0000"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if resp.SessionID == "deadbeef0000" {
		t.Fatalf("unknown session id should be replaced by a fresh one")
	}
}

func TestChatTurnsAdvanceState(t *testing.T) {
	_, handler := testServer(t)

	_, first := postChat(t, handler, api.ChatRequest{Auto: true})
	sid := first.SessionID

	_, resp := postChat(t, handler, api.ChatRequest{Message: "Hugo", SessionID: sid})
	if resp.SessionID != sid {
		t.Fatalf("session id changed mid-conversation")
	}
	if resp.State.AnswerFor("display_name") != "Hugo" {
		t.Fatalf("answer not recorded: %#v", resp.State.Answers)
	}
	if resp.Response.NextQuestion == nil || resp.Response.NextQuestion.FieldName != "age_range" {
		t.Fatalf("should ask age_range next: %#v", resp.Response.NextQuestion)
	}
}

func TestPatchUnknownSessionIs404(t *testing.T) {
	_, handler := testServer(t)

	rr, _ := patchState(t, handler, api.PatchRequest{SessionID: "missing", Updates: map[string]any{"diet": "vegan"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "session not found" {
		t.Fatalf("unexpected error body: %q", rr.Body.String())
	}
}

func TestPatchUpdatesWithoutAdvancing(t *testing.T) {
	_, handler := testServer(t)

	_, first := postChat(t, handler, api.ChatRequest{Auto: true})
	sid := first.SessionID

	rr, resp := patchState(t, handler, api.PatchRequest{
		SessionID: sid,
		Updates:   map[string]any{"diet": "Vegan", "age_range": "25-34"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if resp.State.CurrentStep != "profile" {
		t.Fatalf("patch must not advance current_step, got %q", resp.State.CurrentStep)
	}
	if resp.State.AnswerFor("diet") != "vegan" || resp.State.AnswerFor("age_range") != "25_34" {
		t.Fatalf("updates not normalized: %#v", resp.State.Answers)
	}
	if resp.NextQuestion == nil || resp.NextQuestion.FieldName != "display_name" {
		t.Fatalf("next question should still be display_name: %#v", resp.NextQuestion)
	}
}

func TestPatchInvalidFieldSkipped(t *testing.T) {
	_, handler := testServer(t)

	_, first := postChat(t, handler, api.ChatRequest{Auto: true})
	sid := first.SessionID

	rr, resp := patchState(t, handler, api.PatchRequest{
		SessionID: sid,
		Updates:   map[string]any{"diet": "fruitarian", "display_name": "Hugo"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if resp.State.AnswerFor("diet") != nil {
		t.Fatalf("invalid enum value should be skipped: %#v", resp.State.Answers)
	}
	if resp.State.AnswerFor("display_name") != "Hugo" {
		t.Fatalf("valid sibling update should still apply")
	}
}

func TestPatchInjectsHistoryExchange(t *testing.T) {
	db, err := store.NewStore(filepath.Join(t.TempDir(), "tomo.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer db.Close()

	handler := NewServer(agent.New(noRetriever{}), NewSessions(db)).Handler()
	_, created := postChat(t, handler, api.ChatRequest{Auto: true})

	patchState(t, handler, api.PatchRequest{
		SessionID: created.SessionID,
		Updates:   map[string]any{"spice_ok": "yes"},
	})

	entries, err := db.History(created.SessionID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	var found bool
	for _, e := range entries {
		if e.Role == "user" && strings.Contains(e.Content, "Spice OK? = yes") {
			found = true
		}
	}
	if !found {
		t.Fatalf("synthetic edit line missing from history: %#v", entries)
	}
}

func TestSessionsSurviveRestartWithStore(t *testing.T) {
	db, err := store.NewStore(filepath.Join(t.TempDir(), "tomo.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer db.Close()

	a := agent.New(noRetriever{})
	first := NewServer(a, NewSessions(db)).Handler()

	_, created := postChat(t, first, api.ChatRequest{Auto: true})
	postChat(t, first, api.ChatRequest{Message: "Hugo", SessionID: created.SessionID})

	// New server, same database: the session id must still resolve.
	second := NewServer(a, NewSessions(db)).Handler()
	rr, resp := patchState(t, second, api.PatchRequest{
		SessionID: created.SessionID,
		Updates:   map[string]any{"country": "Portugal"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after restart, got %d body=%s", rr.Code, rr.Body.String())
	}
	if resp.State.AnswerFor("display_name") != "Hugo" {
		t.Fatalf("restored state lost answers: %#v", resp.State.Answers)
	}
}
