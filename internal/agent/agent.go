// Package agent produces the assistant's half of each chat turn. The
// behavior rules mirror the onboarding script: welcome on the automatic
// first turn, extract answers on flow turns, answer questions from the
// knowledge base, redirect anything off-topic, summarize when done.
// Extraction is fully deterministic; an optional rephraser may only
// reword the reply text.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/catalog"
	"github.com/kayz/tomo/internal/flow"
	"github.com/kayz/tomo/internal/logger"
)

// Retriever serves question-intent turns; rag.Store satisfies it.
type Retriever interface {
	Search(query string, topK int) []api.Source
}

// Rephraser rewrites reply text, e.g. through an LLM. Errors fall back to
// the canned text.
type Rephraser interface {
	Rephrase(ctx context.Context, text string) (string, error)
}

type Agent struct {
	retriever Retriever
	rephraser Rephraser
}

func New(retriever Retriever) *Agent {
	return &Agent{retriever: retriever}
}

// WithRephraser enables reply-text rewording.
func (a *Agent) WithRephraser(r Rephraser) *Agent {
	a.rephraser = r
	return a
}

// Respond handles one turn. It mutates state (answer extraction and step
// advancement happen here, never on the patch path) and returns the reply.
func (a *Agent) Respond(ctx context.Context, state *api.State, message string, auto bool) api.Reply {
	text := strings.TrimSpace(message)

	var reply api.Reply
	switch {
	case auto || text == "":
		reply = a.welcome(*state)
	case strings.HasSuffix(text, "?"):
		reply = a.answerQuestion(*state, text)
	default:
		reply = a.handleFlow(state, text)
	}

	if a.rephraser != nil && reply.Message != "" {
		if reworded, err := a.rephraser.Rephrase(ctx, reply.Message); err == nil && strings.TrimSpace(reworded) != "" {
			reply.Message = strings.TrimSpace(reworded)
		} else if err != nil {
			logger.Warnf("rephrase failed, keeping canned text: %v", err)
		}
	}
	return reply
}

func (a *Agent) welcome(state api.State) api.Reply {
	if state.CurrentStep == catalog.StepDone {
		return doneReply(state)
	}
	q := flow.NextQuestion(state)
	msg := "Welcome! I'll set up your profile in three quick steps: Profile, Food and Anime."
	if q != nil {
		msg += " " + q.QuestionText
	}
	return api.Reply{Message: msg, Mode: api.ModeFlowQuestion, NextQuestion: q}
}

func (a *Agent) answerQuestion(state api.State, text string) api.Reply {
	var sources []api.Source
	if a.retriever != nil {
		sources = a.retriever.Search(text, 3)
	}

	if len(sources) == 0 {
		return api.Reply{
			Message: "I couldn't find anything about that. I can only help with the onboarding and the topics it covers.",
			Mode:    api.ModeGuardrail,
		}
	}

	msg := sources[0].Content
	if q := flow.NextQuestion(state); q != nil {
		msg += " Anyway — " + lowerFirst(q.QuestionText)
	}
	return api.Reply{Message: msg, Mode: api.ModeAnswer, Sources: sources}
}

func (a *Agent) handleFlow(state *api.State, text string) api.Reply {
	missing := flow.MissingFields(*state, state.CurrentStep)
	if len(missing) == 0 {
		return doneReply(*state)
	}

	fieldKey := missing[0]
	field, _ := catalog.FieldByKey(fieldKey)

	value, ok := extract(field, text)
	if !ok {
		q := flow.QuestionFor(fieldKey)
		return api.Reply{
			Message:      fmt.Sprintf("Sorry, I didn't catch that as an answer for %s. %s", field.Label, q.QuestionText),
			Mode:         api.ModeGuardrail,
			NextQuestion: q,
		}
	}

	prevStep := state.CurrentStep
	flow.ApplyUpdates(state, map[string]any{fieldKey: value})
	flow.Advance(state)

	if state.CurrentStep == catalog.StepDone {
		return doneReply(*state)
	}

	q := flow.NextQuestion(*state)
	msg := fmt.Sprintf("Got it, %s is set.", field.Label)
	if state.CurrentStep != prevStep {
		stepDef := catalog.StepByKey(state.CurrentStep)
		msg = fmt.Sprintf("That wraps up %s! On to %s.", catalog.StepByKey(prevStep).Label, stepDef.Label)
	}
	if q != nil {
		msg += " " + q.QuestionText
	}
	return api.Reply{Message: msg, Mode: api.ModeFlowQuestion, NextQuestion: q}
}

// extract interprets free text as an answer for a field. Multi fields
// accept comma- or "and"-separated values; anything flow.Normalize rejects
// is not an answer.
func extract(field *catalog.Field, text string) (any, bool) {
	switch field.Type {
	case catalog.TypeMulti:
		parts := splitAnswers(text)
		if len(parts) == 0 {
			return nil, false
		}
		return normalized(field, parts)
	default:
		return flow.Normalize(field, text)
	}
}

func normalized(field *catalog.Field, parts []string) (any, bool) {
	v, ok := flow.Normalize(field, parts)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func splitAnswers(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), " and ", ",")
	var out []string
	for _, tok := range strings.Split(text, ",") {
		if t := strings.TrimSpace(tok); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func doneReply(state api.State) api.Reply {
	var lines []string
	for _, step := range catalog.Steps {
		for _, f := range step.Fields {
			if v := state.AnswerFor(f.Key); v != nil {
				lines = append(lines, fmt.Sprintf("%s: %s", f.Label, catalog.FormatValue(&f, v)))
			}
		}
	}
	msg := "All done! Here's your profile — " + strings.Join(lines, "; ") + "."
	return api.Reply{Message: msg, Mode: api.ModeDone}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
