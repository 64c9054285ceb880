package valuation

import (
	"valuation-service/internal/domain"
)

// Preview is the live score shown on a wizard section result screen.
type Preview struct {
	Section           string             `json:"section"`
	SectionScore      int                `json:"sectionScore"`
	SectionMax        int                `json:"sectionMax"`
	SectionPercentage float64            `json:"sectionPercentage"`
	OverallPercentage float64            `json:"overallPercentage"`
	Scores            domain.ScoreVector `json:"scores"`
}

// SectionPreview scores a partially filled answer set for one section and
// overall. Unknown sections yield a zero section score.
func SectionPreview(questions []domain.Question, answers domain.Answers, section string) Preview {
	var inSection []domain.Question
	for _, q := range questions {
		if q.Section == section {
			inSection = append(inSection, q)
		}
	}
	sectionScores := ScoreAnswers(inSection, answers)
	sectionMaxima := CategoryMaxima(inSection)

	scores := ScoreAnswers(questions, answers)
	return Preview{
		Section:           section,
		SectionScore:      sectionScores.Total(),
		SectionMax:        sectionMaxima.Total(),
		SectionPercentage: AggregatePercentage(sectionScores, sectionMaxima),
		OverallPercentage: AggregatePercentage(scores, CategoryMaxima(questions)),
		Scores:            scores,
	}
}
