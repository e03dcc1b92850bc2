package flow

import (
	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/catalog"
)

// questionText is the canned prompt per field; the agent may override the
// phrasing but the structured part of the question is always built here.
var questionText = map[string]string{
	"display_name":    "What should I call you?",
	"age_range":       "Which age range are you in?",
	"country":         "Which country do you live in?",
	"diet":            "What kind of diet do you follow?",
	"allergies":       "Any food allergies I should know about?",
	"spice_ok":        "Are you okay with spicy food?",
	"favorite_genres": "Which anime genres do you enjoy?",
	"sub_or_dub":      "Subbed or dubbed?",
	"top_3_anime":     "What are your top 3 anime?",
}

// NextQuestion builds the structured descriptor for the first missing field
// of the current step, or nil when the step is complete or done.
func NextQuestion(s api.State) *api.Question {
	missing := MissingFields(s, s.CurrentStep)
	if len(missing) == 0 {
		return nil
	}
	return QuestionFor(missing[0])
}

// QuestionFor builds the descriptor for one field. Options are the raw
// option values stringified (booleans become yes/no so the client always
// deals in strings); labels stay parallel to options.
func QuestionFor(key string) *api.Question {
	field, _ := catalog.FieldByKey(key)
	if field == nil {
		return nil
	}

	q := &api.Question{
		FieldName:    key,
		QuestionText: questionText[key],
		DefaultValue: field.Default,
		MultiSelect:  field.Type == catalog.TypeMulti,
	}
	for _, o := range field.Options {
		switch v := o.Value.(type) {
		case string:
			q.Options = append(q.Options, v)
		case bool:
			if v {
				q.Options = append(q.Options, "yes")
			} else {
				q.Options = append(q.Options, "no")
			}
		}
		q.OptionLabels = append(q.OptionLabels, o.Label)
	}
	return q
}
