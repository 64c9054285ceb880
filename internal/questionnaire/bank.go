// Package questionnaire loads and validates the valuation question bank.
package questionnaire

import (
	"valuation-service/internal/domain"
)

// Keys with fixed meaning for the valuation engine.
const (
	KeyEmail          = "email"
	KeyCompanyName    = "company_name"
	KeySector         = "industry_sector"
	KeySubSector      = "industry_sub_sector"
	KeyRevenue        = "annual_revenue"
	KeyEBITDA         = "ebitda"
	KeyAdjustments    = "ebitda_adjustments"
	KeyProfitTrend    = "profit_trend"
	KeyOwnerDependent = "owner_dependence"
)

// Section is a wizard page.
type Section struct {
	ID    string
	Title string
}

// Bank is an immutable questionnaire definition.
type Bank struct {
	ID         string
	Version    int
	Sections   []Section
	Questions  []domain.Question
	Industries domain.IndustryTable
}

// Question returns the question stored under key.
func (b Bank) Question(key string) (domain.Question, bool) {
	for _, q := range b.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return domain.Question{}, false
}

// SectionQuestions returns the questions of one wizard page in declaration order.
func (b Bank) SectionQuestions(section string) []domain.Question {
	var out []domain.Question
	for _, q := range b.Questions {
		if q.Section == section {
			out = append(out, q)
		}
	}
	return out
}

// HasSection reports whether id names a wizard page.
func (b Bank) HasSection(id string) bool {
	for _, s := range b.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}
