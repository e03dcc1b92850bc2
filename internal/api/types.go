// Package api defines the wire contract between the chat client and the
// onboarding server, and the HTTP client used to speak it.
package api

// ChatRequest is the body of POST /chat. A blank SessionID asks the server
// to create a session; Auto marks the client's automatic init probe.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Auto      bool   `json:"auto,omitempty"`
}

// State is the server-authoritative onboarding snapshot. Answers is a flat
// field-key → value map; values are whatever JSON decoded them to.
type State struct {
	CurrentStep string         `json:"current_step"`
	Answers     map[string]any `json:"answers"`
}

// AnswerFor returns the stored answer for a field key, nil when absent.
func (s State) AnswerFor(key string) any {
	if s.Answers == nil {
		return nil
	}
	return s.Answers[key]
}

// Question describes the next structured answer the assistant expects.
// Options and OptionLabels are parallel; both may be absent for free-text
// questions.
type Question struct {
	FieldName    string   `json:"field_name"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options,omitempty"`
	OptionLabels []string `json:"option_labels,omitempty"`
	DefaultValue string   `json:"default_value,omitempty"`
	MultiSelect  bool     `json:"multi_select,omitempty"`
}

// Source is one retrieval hit attached to an answer.
type Source struct {
	Title   string  `json:"title"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Assistant response modes.
const (
	ModeFlowQuestion = "flow_question"
	ModeAnswer       = "answer"
	ModeGuardrail    = "guardrail"
	ModeDone         = "done"
)

// Reply is the assistant's half of a chat turn.
type Reply struct {
	Message      string    `json:"message"`
	Mode         string    `json:"mode"`
	Sources      []Source  `json:"sources,omitempty"`
	NextQuestion *Question `json:"next_question"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	Response  Reply  `json:"response"`
}

// PatchRequest is the body of PATCH /state: direct field edits bypassing
// the conversational turn.
type PatchRequest struct {
	SessionID string         `json:"session_id"`
	Updates   map[string]any `json:"updates"`
}

// PatchResponse is the body of a successful PATCH /state.
type PatchResponse struct {
	State        State     `json:"state"`
	NextQuestion *Question `json:"next_question"`
}
