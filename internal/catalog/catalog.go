// Package catalog holds the static onboarding step and field definitions.
// The table is loaded once and shared read-only by the client, the server
// flow state and the TUI.
package catalog

// Field types.
const (
	TypeText  = "text"
	TypeEnum  = "enum"
	TypeMulti = "multi"
	TypeList  = "list"
)

// Step keys, in flow order. StepDone carries no fields.
const (
	StepProfile = "profile"
	StepFood    = "food"
	StepAnime   = "anime"
	StepDone    = "done"
)

// Option is one selectable value with its display label. Value is "any"
// because the spice_ok options carry real booleans, not strings.
type Option struct {
	Value any
	Label string
}

// Field describes one answer slot on a step.
type Field struct {
	Key     string
	Label   string
	Type    string
	Options []Option

	// Default, when non-empty, prefills the input on Tab.
	Default string
}

// Step is one section of the questionnaire.
type Step struct {
	Key    string
	Label  string
	Fields []Field
}

// Steps is the fixed ordered questionnaire. Do not mutate.
var Steps = []Step{
	{
		Key:   StepProfile,
		Label: "Profile",
		Fields: []Field{
			{Key: "display_name", Label: "Display Name", Type: TypeText},
			{
				Key: "age_range", Label: "Age Range", Type: TypeEnum,
				Options: []Option{
					{Value: "under_18", Label: "Under 18"},
					{Value: "18_24", Label: "18-24"},
					{Value: "25_34", Label: "25-34"},
					{Value: "35_44", Label: "35-44"},
					{Value: "45_plus", Label: "45+"},
				},
			},
			{Key: "country", Label: "Country", Type: TypeText},
		},
	},
	{
		Key:   StepFood,
		Label: "Food",
		Fields: []Field{
			{
				Key: "diet", Label: "Diet", Type: TypeEnum,
				Options: []Option{
					{Value: "omnivore", Label: "Omnivore"},
					{Value: "vegetarian", Label: "Vegetarian"},
					{Value: "vegan", Label: "Vegan"},
					{Value: "pescatarian", Label: "Pescatarian"},
					{Value: "keto", Label: "Keto"},
					{Value: "halal", Label: "Halal"},
					{Value: "kosher", Label: "Kosher"},
					{Value: "other", Label: "Other"},
				},
			},
			{
				Key: "allergies", Label: "Allergies", Type: TypeMulti,
				Default: "none",
				Options: []Option{
					{Value: "dairy", Label: "Dairy"},
					{Value: "gluten", Label: "Gluten"},
					{Value: "nuts", Label: "Nuts"},
					{Value: "shellfish", Label: "Shellfish"},
					{Value: "soy", Label: "Soy"},
					{Value: "eggs", Label: "Eggs"},
					{Value: "none", Label: "None"},
				},
			},
			{
				Key: "spice_ok", Label: "Spice OK?", Type: TypeEnum,
				Options: []Option{
					{Value: true, Label: "Yes"},
					{Value: false, Label: "No"},
				},
			},
		},
	},
	{
		Key:   StepAnime,
		Label: "Anime",
		Fields: []Field{
			{
				Key: "favorite_genres", Label: "Favorite Genres", Type: TypeMulti,
				Options: []Option{
					{Value: "shonen", Label: "Shonen"},
					{Value: "shojo", Label: "Shojo"},
					{Value: "seinen", Label: "Seinen"},
					{Value: "isekai", Label: "Isekai"},
					{Value: "mecha", Label: "Mecha"},
					{Value: "slice_of_life", Label: "Slice of Life"},
					{Value: "horror", Label: "Horror"},
					{Value: "romance", Label: "Romance"},
					{Value: "comedy", Label: "Comedy"},
					{Value: "fantasy", Label: "Fantasy"},
					{Value: "sci_fi", Label: "Sci-Fi"},
				},
			},
			{
				Key: "sub_or_dub", Label: "Sub or Dub", Type: TypeEnum,
				Options: []Option{
					{Value: "sub", Label: "Sub"},
					{Value: "dub", Label: "Dub"},
					{Value: "both", Label: "Both"},
				},
			},
			{Key: "top_3_anime", Label: "Top 3 Anime", Type: TypeList},
		},
	},
}

// StepOrder is the canonical progression, including the terminal step.
var StepOrder = []string{StepProfile, StepFood, StepAnime, StepDone}

// StepIndex returns the position of key in StepOrder, or -1.
func StepIndex(key string) int {
	for i, s := range StepOrder {
		if s == key {
			return i
		}
	}
	return -1
}

// StepByKey returns the step definition for key, nil for unknown keys and
// for the done step.
func StepByKey(key string) *Step {
	for i := range Steps {
		if Steps[i].Key == key {
			return &Steps[i]
		}
	}
	return nil
}

// FieldByKey looks a field up across all steps and reports which step owns
// it.
func FieldByKey(key string) (*Field, *Step) {
	for i := range Steps {
		for j := range Steps[i].Fields {
			if Steps[i].Fields[j].Key == key {
				return &Steps[i].Fields[j], &Steps[i]
			}
		}
	}
	return nil, nil
}
