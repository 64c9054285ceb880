package questionnaire

import (
	"math"
	"net/mail"

	"valuation-service/internal/domain"
)

// Validate checks answers against the bank before a final submission.
// Unanswered optional questions are fine; answered ones must still be well formed.
// It returns nil or a *domain.ValidationError.
func (b Bank) Validate(answers domain.Answers) error {
	verr := &domain.ValidationError{}
	for _, q := range b.Questions {
		if !answers.Has(q.Key) {
			if q.Required {
				verr.Missing = append(verr.Missing, q.Key)
			}
			continue
		}
		if !validAnswer(q, answers) {
			verr.Invalid = append(verr.Invalid, q.Key)
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func validAnswer(q domain.Question, answers domain.Answers) bool {
	switch in := q.Input.(type) {
	case domain.SingleChoice:
		v, _ := answers.Text(q.Key)
		_, ok := in.Match(v)
		return ok
	case domain.Numeric:
		v, ok := answers.Number(q.Key)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		return in.InRange(v)
	case domain.Text:
		v, ok := answers.Text(q.Key)
		if !ok {
			return false
		}
		if in.Email {
			return ValidEmail(v)
		}
		return true
	case domain.DependentSelect:
		parent, _ := answers.Text(in.DependsOn)
		v, _ := answers.Text(q.Key)
		return in.Allowed(parent, v)
	default:
		return false
	}
}

// ValidEmail reports whether s is a bare address such as owner@example.com.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
