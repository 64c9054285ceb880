package domain

import (
	"strings"
	"time"
)

// ScoreVector maps each category to the points earned in it.
type ScoreVector map[Category]int

// Total sums every category.
func (v ScoreVector) Total() int {
	total := 0
	for _, s := range v {
		total += s
	}
	return total
}

// RoadmapItem is one improvement priority surfaced to the respondent.
type RoadmapItem struct {
	Category  Category `json:"category"`
	Title     string   `json:"title"`
	Score     int      `json:"score"`
	Max       int      `json:"max"`
	Rationale string   `json:"rationale"`
	Actions   []string `json:"actions"`
}

// ValuationResult is computed once at submission time and never mutated.
type ValuationResult struct {
	Stage              string        `json:"stage"`
	AdjustedEBITDA     float64       `json:"adjustedEbitda"`
	BaseMultiple       float64       `json:"baseMultiple"`
	MaxMultiple        float64       `json:"maxMultiple"`
	IndustryFactor     float64       `json:"industryFactor"`
	FinalMultiple      float64       `json:"finalMultiple"`
	EstimatedValuation int64         `json:"estimatedValuation"`
	ScorePercentage    float64       `json:"scorePercentage"`
	Scores             ScoreVector   `json:"scores"`
	Maxima             ScoreVector   `json:"maxima"`
	Roadmap            []RoadmapItem `json:"roadmap"`
}

// SubSector is an industry refinement carrying a multiple adjustment factor.
type SubSector struct {
	Name   string  `json:"name" yaml:"name"`
	Factor float64 `json:"factor" yaml:"factor"`
}

// Industry groups sub-sectors under a sector name.
type Industry struct {
	Sector     string      `json:"sector" yaml:"sector"`
	SubSectors []SubSector `json:"subSectors" yaml:"sub_sectors"`
}

// IndustryTable is the ordered list of sectors offered by the questionnaire.
type IndustryTable []Industry

// Factor looks up the adjustment factor for an exact sector/sub-sector pair.
// Matching ignores case and surrounding whitespace.
func (t IndustryTable) Factor(sector, subSector string) (float64, bool) {
	sector = strings.TrimSpace(sector)
	subSector = strings.TrimSpace(subSector)
	for _, ind := range t {
		if !strings.EqualFold(ind.Sector, sector) {
			continue
		}
		for _, sub := range ind.SubSectors {
			if strings.EqualFold(sub.Name, subSector) {
				return sub.Factor, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Choices returns the sector to sub-sector names mapping for dependent selects.
func (t IndustryTable) Choices() map[string][]string {
	out := make(map[string][]string, len(t))
	for _, ind := range t {
		names := make([]string, 0, len(ind.SubSectors))
		for _, sub := range ind.SubSectors {
			names = append(names, sub.Name)
		}
		out[ind.Sector] = names
	}
	return out
}

// Submission is the persisted row for one respondent's assessment.
type Submission struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	CompanyName   string           `json:"companyName,omitempty"`
	Answers       Answers          `json:"answers"`
	Valuation     *ValuationResult `json:"valuation,omitempty"`
	S2DAnswers    Answers          `json:"s2dAnswers,omitempty"`
	S2D           *S2DResult       `json:"s2d,omitempty"`
	Completed     bool             `json:"completed"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	// AccessKeyHash is the SHA-256 of the key handed to the respondent.
	AccessKeyHash string           `json:"-"`
}

// ContinuationToken lets a respondent resume a partial submission once.
type ContinuationToken struct {
	Token        string    `json:"token"`
	AssessmentID string    `json:"assessmentId"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Used         bool      `json:"used"`
}

// Verify checks the token is still redeemable at now.
func (t ContinuationToken) Verify(now time.Time) error {
	if t.Token == "" {
		return ErrTokenNotFound
	}
	if t.Used {
		return ErrTokenUsed
	}
	if !now.Before(t.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
