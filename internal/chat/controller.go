package chat

import (
	"context"
	"sync"

	"github.com/kayz/tomo/internal/api"
)

// Transport is the injected network dependency; api.Client satisfies it.
type Transport interface {
	Chat(ctx context.Context, req api.ChatRequest) (api.ChatResponse, error)
	PatchState(ctx context.Context, req api.PatchRequest) (api.PatchResponse, error)
}

// Role values for transcript messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one immutable transcript entry.
type Message struct {
	Role    string
	Text    string
	IsError bool
	Sources []api.Source
}

// Phase of the chat round-trip state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
)

// Controller owns the transcript, the session, the canonical onboarding
// snapshot and the active question, and orchestrates every round trip.
//
// Chat turns are single-flight: Submit while a turn is outstanding is a
// no-op. Direct field patches are not subject to that guarantee and may
// race an in-flight turn; whichever response resolves last wins the state
// snapshot. The mutex only keeps each replacement atomic — the UI itself
// is a single event loop.
type Controller struct {
	mu        sync.Mutex
	transport Transport

	messages  []Message
	sessionID string
	state     api.State
	question  *api.Question
	phase     Phase
	initDone  bool
}

func NewController(transport Transport) *Controller {
	return &Controller{transport: transport}
}

// Messages returns a copy of the transcript in append order.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) State() api.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveQuestion returns the current question descriptor, nil when the
// assistant expects free text.
func (c *Controller) ActiveQuestion() *api.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.question
}

// Sending reports whether a chat turn is outstanding; the typing indicator
// tracks this exactly.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseSending
}

// Init fires the automatic opening round trip: a blank message with the
// auto flag and no session id. It runs at most once per controller; later
// calls are no-ops.
func (c *Controller) Init(ctx context.Context) {
	c.mu.Lock()
	if c.initDone || c.phase == PhaseSending {
		c.mu.Unlock()
		return
	}
	c.initDone = true
	c.phase = PhaseSending
	c.mu.Unlock()

	resp, err := c.transport.Chat(ctx, api.ChatRequest{Auto: true})
	c.finishTurn(resp, err)
}

// Submit sends one user message. It is a guaranteed no-op while another
// turn is outstanding. The user message is appended optimistically before
// the network call so it is always visible ahead of the reply.
func (c *Controller) Submit(ctx context.Context, text string) {
	c.mu.Lock()
	if c.phase == PhaseSending {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseSending
	c.messages = append(c.messages, Message{Role: RoleUser, Text: text})
	sessionID := c.sessionID
	c.mu.Unlock()

	resp, err := c.transport.Chat(ctx, api.ChatRequest{
		Message:   text,
		SessionID: sessionID,
	})
	c.finishTurn(resp, err)
}

// finishTurn applies the outcome of a chat round trip and returns to idle.
func (c *Controller) finishTurn(resp api.ChatResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseIdle

	if err != nil {
		// The failure becomes a visible error bubble; session and state
		// stay untouched so the user can simply resubmit.
		c.messages = append(c.messages, Message{
			Role:    RoleAssistant,
			Text:    "Error: " + err.Error(),
			IsError: true,
		})
		return
	}

	msg := Message{Role: RoleAssistant, Text: resp.Response.Message}
	if len(resp.Response.Sources) > 0 {
		msg.Sources = resp.Response.Sources
	}
	c.messages = append(c.messages, msg)

	c.sessionID = resp.SessionID
	c.state = resp.State
	c.question = resp.Response.NextQuestion
}

// PatchField pushes one direct field edit through the side channel. It does
// not touch the transcript or the active question's lifetime rules beyond
// adopting the response's next_question, and it never blocks a chat turn.
func (c *Controller) PatchField(ctx context.Context, key string, value any) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	resp, err := c.transport.PatchState(ctx, api.PatchRequest{
		SessionID: sessionID,
		Updates:   map[string]any{key: value},
	})
	if err != nil {
		c.mu.Lock()
		c.messages = append(c.messages, Message{
			Role:    RoleAssistant,
			Text:    "Error: " + err.Error(),
			IsError: true,
		})
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = resp.State
	c.question = resp.NextQuestion
	c.mu.Unlock()
	return nil
}
