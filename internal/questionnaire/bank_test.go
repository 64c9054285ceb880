package questionnaire

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-service/internal/domain"
)

func TestDefaultBankLoads(t *testing.T) {
	bank := Default()

	assert.Equal(t, DefaultID, bank.ID)
	assert.Len(t, bank.Sections, 8)
	assert.Len(t, bank.Questions, 27)

	sector, ok := bank.Question(KeySector)
	require.True(t, ok)
	choice, ok := sector.Input.(domain.SingleChoice)
	require.True(t, ok)
	assert.Len(t, choice.Options, len(bank.Industries))

	sub, ok := bank.Question(KeySubSector)
	require.True(t, ok)
	ds, ok := sub.Input.(domain.DependentSelect)
	require.True(t, ok)
	assert.True(t, ds.Allowed("Technology", "SaaS"))
	assert.False(t, ds.Allowed("Retail", "SaaS"))
}

func TestEveryCategoryHasQuestions(t *testing.T) {
	bank := Default()
	seen := map[domain.Category]bool{}
	for _, q := range bank.Questions {
		if q.Scored() {
			seen[q.Category] = true
		}
	}
	for _, c := range domain.Categories {
		assert.True(t, seen[c], "category %s has no scored question", c)
	}
}

func TestBankJSONRoundTrip(t *testing.T) {
	bank := Default()
	data, err := json.Marshal(bank)
	require.NoError(t, err)

	var decoded Bank
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, bank, decoded)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", `sections: []`},
		{"zero factor", `
id: b
industries:
  - sector: Tech
    sub_sectors: [{name: SaaS, factor: 0}]`},
		{"duplicate key", `
id: b
sections:
  - id: s
    questions:
      - {id: a, kind: text}
      - {id: b, key: a, kind: text}`},
		{"unknown kind", `
id: b
sections:
  - id: s
    questions:
      - {id: a, kind: slider}`},
		{"choice without options", `
id: b
sections:
  - id: s
    questions:
      - {id: a, kind: single_choice}`},
		{"categorised number", `
id: b
sections:
  - id: s
    questions:
      - {id: a, kind: number, category: systems}`},
		{"dangling dependency", `
id: b
sections:
  - id: s
    questions:
      - {id: a, kind: dependent_select, depends_on: nowhere}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	bank := Default()

	answers := completeAnswers()
	assert.NoError(t, bank.Validate(answers))

	delete(answers, KeyEBITDA)
	answers[KeyEmail] = "not-an-email"
	answers[KeySubSector] = "SaaS"
	answers["profit_trend"] = "Declining"
	answers["years_in_business"] = -3

	err := bank.Validate(answers)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{KeyEBITDA}, verr.Missing)
	assert.ElementsMatch(t, []string{KeyEmail, KeySubSector, "profit_trend", "years_in_business"}, verr.Invalid)
}

func TestSectionQuestions(t *testing.T) {
	bank := Default()
	qs := bank.SectionQuestions("market")
	require.Len(t, qs, 3)
	assert.Equal(t, "market_growth", qs[0].Key)
	assert.True(t, bank.HasSection("systems"))
	assert.False(t, bank.HasSection("nope"))
	assert.Empty(t, bank.SectionQuestions("nope"))
}

func completeAnswers() domain.Answers {
	return domain.Answers{
		"contact_name":             "Dana Owner",
		KeyEmail:                   "dana@example.com",
		KeyCompanyName:             "Acme HVAC",
		KeySector:                  "Home Services",
		KeySubSector:               "HVAC",
		KeyRevenue:                 4_000_000,
		KeyEBITDA:                  "650,000",
		"profit_trend":             "growing",
		"recurring_revenue":        "25_50",
		"growth_plan":              "written",
		"new_markets":              "exploring",
		"lead_sources":             "few",
		"marketing_budget":         "planned",
		"offering_differentiation": "clear",
		"pricing_power":            "some",
		"owner_dependence":         "partly",
		"management_team":          "partial",
		"documented_processes":     "some",
		"financial_reporting":      "monthly",
		"market_growth":            "growing",
		"customer_concentration":   "10_25",
	}
}
