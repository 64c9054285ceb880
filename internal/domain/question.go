package domain

// Category is a scoring bucket for the valuation questionnaire.
type Category string

const (
	CategoryExpansion     Category = "expansion"
	CategoryMarketing     Category = "marketing"
	CategoryProfitability Category = "profitability"
	CategoryOffering      Category = "offering"
	CategoryWorkforce     Category = "workforce"
	CategorySystems       Category = "systems"
	CategoryMarket        Category = "market"
)

// Categories is the declaration order used for tie-breaking and display.
var Categories = []Category{
	CategoryExpansion,
	CategoryMarketing,
	CategoryProfitability,
	CategoryOffering,
	CategoryWorkforce,
	CategorySystems,
	CategoryMarket,
}

var categoryTitles = map[Category]string{
	CategoryExpansion:     "Growth & Expansion",
	CategoryMarketing:     "Marketing & Lead Generation",
	CategoryProfitability: "Profitability & Financial Health",
	CategoryOffering:      "Products & Services",
	CategoryWorkforce:     "Team & Leadership",
	CategorySystems:       "Systems & Processes",
	CategoryMarket:        "Market Position",
}

// Title returns the display name of the category, or the raw id when unknown.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// Known reports whether c belongs to the enumerated set.
func (c Category) Known() bool {
	_, ok := categoryTitles[c]
	return ok
}

// InputKind names the variant carried by Question.Input.
type InputKind string

const (
	KindSingleChoice    InputKind = "single_choice"
	KindNumber          InputKind = "number"
	KindEmail           InputKind = "email"
	KindText            InputKind = "text"
	KindDependentSelect InputKind = "dependent_select"
)

// Input is the per-kind payload of a question. The set of implementations is closed.
type Input interface {
	Kind() InputKind
	input()
}

// Option is one selectable answer of a single-choice question.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Score int    `json:"score" yaml:"score"`
}

// SingleChoice is a radio-style question scored through its options.
type SingleChoice struct {
	Options []Option
}

func (SingleChoice) Kind() InputKind { return KindSingleChoice }
func (SingleChoice) input()          {}

// Match returns the option whose machine value equals value.
func (s SingleChoice) Match(value string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// BestScore is the highest score any option awards.
func (s SingleChoice) BestScore() int {
	best := 0
	for i, opt := range s.Options {
		if i == 0 || opt.Score > best {
			best = opt.Score
		}
	}
	return best
}

// Numeric accepts a number within optional bounds.
type Numeric struct {
	Min *float64
	Max *float64
}

func (Numeric) Kind() InputKind { return KindNumber }
func (Numeric) input()          {}

// InRange reports whether v satisfies the configured bounds.
func (n Numeric) InRange(v float64) bool {
	if n.Min != nil && v < *n.Min {
		return false
	}
	if n.Max != nil && v > *n.Max {
		return false
	}
	return true
}

// Text is free text; Email marks it as an address field.
type Text struct {
	Email bool
}

func (t Text) Kind() InputKind {
	if t.Email {
		return KindEmail
	}
	return KindText
}
func (Text) input() {}

// DependentSelect offers choices that depend on the answer to another key.
type DependentSelect struct {
	DependsOn string
	Choices   map[string][]string
}

func (DependentSelect) Kind() InputKind { return KindDependentSelect }
func (DependentSelect) input()          {}

// Allowed reports whether value is offered once parent has been chosen.
func (d DependentSelect) Allowed(parent, value string) bool {
	for _, c := range d.Choices[parent] {
		if c == value {
			return true
		}
	}
	return false
}

// Question is a static questionnaire entry.
type Question struct {
	ID       string
	Section  string
	Prompt   string
	Key      string
	Required bool
	Category Category
	Input    Input
}

// Scored reports whether the question contributes to a category score.
func (q Question) Scored() bool {
	if q.Category == "" {
		return false
	}
	_, ok := q.Input.(SingleChoice)
	return ok
}
