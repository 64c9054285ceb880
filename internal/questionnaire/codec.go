package questionnaire

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"valuation-service/internal/domain"
)

// optionsFromIndustries populates a single-choice question with the sector list.
const optionsFromIndustries = "industries"

// bankDoc is the on-disk and on-wire shape of a Bank. The same document is
// read from the embedded YAML file, stored as JSONB and cached in Redis.
type bankDoc struct {
	ID         string               `json:"id" yaml:"id"`
	Version    int                  `json:"version" yaml:"version"`
	Industries domain.IndustryTable `json:"industries" yaml:"industries"`
	Sections   []sectionDoc         `json:"sections" yaml:"sections"`
}

type sectionDoc struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Questions []questionDoc `json:"questions" yaml:"questions"`
}

type questionDoc struct {
	ID          string              `json:"id" yaml:"id"`
	Key         string              `json:"key,omitempty" yaml:"key,omitempty"`
	Prompt      string              `json:"prompt" yaml:"prompt"`
	Kind        domain.InputKind    `json:"kind" yaml:"kind"`
	Required    bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Category    domain.Category     `json:"category,omitempty" yaml:"category,omitempty"`
	Options     []domain.Option     `json:"options,omitempty" yaml:"options,omitempty"`
	OptionsFrom string              `json:"options_from,omitempty" yaml:"options_from,omitempty"`
	Min         *float64            `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64            `json:"max,omitempty" yaml:"max,omitempty"`
	DependsOn   string              `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Choices     map[string][]string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// ParseYAML decodes and validates a bank document.
func ParseYAML(data []byte) (Bank, error) {
	var doc bankDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Bank{}, eris.Wrap(err, "questionnaire: decode yaml")
	}
	return fromDoc(doc)
}

// ParseJSON decodes and validates a bank document.
func ParseJSON(data []byte) (Bank, error) {
	var doc bankDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Bank{}, eris.Wrap(err, "questionnaire: decode json")
	}
	return fromDoc(doc)
}

// MarshalJSON encodes the bank with every derived option expanded.
func (b Bank) MarshalJSON() ([]byte, error) {
	return json.Marshal(toDoc(b))
}

// UnmarshalJSON decodes and validates a bank.
func (b *Bank) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func fromDoc(doc bankDoc) (Bank, error) {
	if doc.ID == "" {
		return Bank{}, eris.New("questionnaire: missing id")
	}
	if err := validateIndustries(doc.Industries); err != nil {
		return Bank{}, err
	}

	bank := Bank{ID: doc.ID, Version: doc.Version, Industries: doc.Industries}
	seenIDs := map[string]bool{}
	seenKeys := map[string]bool{}
	for _, sec := range doc.Sections {
		if sec.ID == "" {
			return Bank{}, eris.New("questionnaire: section without id")
		}
		bank.Sections = append(bank.Sections, Section{ID: sec.ID, Title: sec.Title})
		for _, qd := range sec.Questions {
			q, err := questionFromDoc(sec.ID, qd, doc.Industries)
			if err != nil {
				return Bank{}, err
			}
			if seenIDs[q.ID] {
				return Bank{}, eris.Errorf("questionnaire: duplicate question id %q", q.ID)
			}
			if seenKeys[q.Key] {
				return Bank{}, eris.Errorf("questionnaire: duplicate storage key %q", q.Key)
			}
			seenIDs[q.ID] = true
			seenKeys[q.Key] = true
			bank.Questions = append(bank.Questions, q)
		}
	}

	for _, q := range bank.Questions {
		if ds, ok := q.Input.(domain.DependentSelect); ok && !seenKeys[ds.DependsOn] {
			return Bank{}, eris.Errorf("questionnaire: %s depends on unknown key %q", q.ID, ds.DependsOn)
		}
	}
	return bank, nil
}

func questionFromDoc(section string, qd questionDoc, industries domain.IndustryTable) (domain.Question, error) {
	if qd.ID == "" {
		return domain.Question{}, eris.Errorf("questionnaire: question without id in section %q", section)
	}
	q := domain.Question{
		ID:       qd.ID,
		Section:  section,
		Prompt:   qd.Prompt,
		Key:      qd.Key,
		Required: qd.Required,
		Category: qd.Category,
	}
	if q.Key == "" {
		q.Key = qd.ID
	}

	switch qd.Kind {
	case domain.KindSingleChoice:
		opts := qd.Options
		if qd.OptionsFrom == optionsFromIndustries {
			opts = sectorOptions(industries)
		} else if qd.OptionsFrom != "" {
			return domain.Question{}, eris.Errorf("questionnaire: %s has unknown options_from %q", qd.ID, qd.OptionsFrom)
		}
		if len(opts) == 0 {
			return domain.Question{}, eris.Errorf("questionnaire: %s has no options", qd.ID)
		}
		values := map[string]bool{}
		for _, o := range opts {
			if o.Value == "" || values[o.Value] {
				return domain.Question{}, eris.Errorf("questionnaire: %s has empty or duplicate option value %q", qd.ID, o.Value)
			}
			values[o.Value] = true
		}
		q.Input = domain.SingleChoice{Options: opts}
	case domain.KindNumber:
		if qd.Min != nil && qd.Max != nil && *qd.Min > *qd.Max {
			return domain.Question{}, eris.Errorf("questionnaire: %s min exceeds max", qd.ID)
		}
		q.Input = domain.Numeric{Min: qd.Min, Max: qd.Max}
	case domain.KindText:
		q.Input = domain.Text{}
	case domain.KindEmail:
		q.Input = domain.Text{Email: true}
	case domain.KindDependentSelect:
		if qd.DependsOn == "" {
			return domain.Question{}, eris.Errorf("questionnaire: %s missing depends_on", qd.ID)
		}
		choices := qd.Choices
		if len(choices) == 0 {
			choices = industries.Choices()
		}
		q.Input = domain.DependentSelect{DependsOn: qd.DependsOn, Choices: choices}
	default:
		return domain.Question{}, eris.Errorf("questionnaire: %s has unknown kind %q", qd.ID, qd.Kind)
	}

	if q.Category != "" && q.Input.Kind() != domain.KindSingleChoice {
		return domain.Question{}, eris.Errorf("questionnaire: %s is categorised but not single choice", qd.ID)
	}
	return q, nil
}

func sectorOptions(industries domain.IndustryTable) []domain.Option {
	opts := make([]domain.Option, 0, len(industries))
	for _, ind := range industries {
		opts = append(opts, domain.Option{Value: ind.Sector, Label: ind.Sector})
	}
	return opts
}

// validateIndustries rejects factors that would zero or flip a valuation.
func validateIndustries(table domain.IndustryTable) error {
	var errs []string
	for _, ind := range table {
		if strings.TrimSpace(ind.Sector) == "" {
			errs = append(errs, "sector with empty name")
		}
		for _, sub := range ind.SubSectors {
			if sub.Factor <= 0 || math.IsNaN(sub.Factor) || math.IsInf(sub.Factor, 0) {
				errs = append(errs, fmt.Sprintf("%s/%s factor %v must be positive", ind.Sector, sub.Name, sub.Factor))
			}
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("questionnaire: invalid industries: %s", strings.Join(errs, "; "))
	}
	return nil
}

func toDoc(b Bank) bankDoc {
	doc := bankDoc{ID: b.ID, Version: b.Version, Industries: b.Industries}
	for _, sec := range b.Sections {
		sd := sectionDoc{ID: sec.ID, Title: sec.Title}
		for _, q := range b.SectionQuestions(sec.ID) {
			sd.Questions = append(sd.Questions, questionToDoc(q))
		}
		doc.Sections = append(doc.Sections, sd)
	}
	return doc
}

func questionToDoc(q domain.Question) questionDoc {
	qd := questionDoc{
		ID:       q.ID,
		Key:      q.Key,
		Prompt:   q.Prompt,
		Required: q.Required,
		Category: q.Category,
	}
	switch in := q.Input.(type) {
	case domain.SingleChoice:
		qd.Kind = domain.KindSingleChoice
		qd.Options = in.Options
	case domain.Numeric:
		qd.Kind = domain.KindNumber
		qd.Min, qd.Max = in.Min, in.Max
	case domain.Text:
		qd.Kind = in.Kind()
	case domain.DependentSelect:
		qd.Kind = domain.KindDependentSelect
		qd.DependsOn = in.DependsOn
		qd.Choices = in.Choices
	default:
		panic(fmt.Sprintf("questionnaire: unhandled input %T", in))
	}
	return qd
}
