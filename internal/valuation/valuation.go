package valuation

import (
	"math"

	"valuation-service/internal/domain"
)

// Answer keys read by the financial part of the model.
const (
	KeyEBITDA      = "ebitda"
	KeyAdjustments = "ebitda_adjustments"
	KeySector      = "industry_sector"
	KeySubSector   = "industry_sub_sector"
)

// ComputeValuation interpolates the final multiple between base and max by the
// score percentage and applies it to adjusted EBITDA. A negative EBITDA is
// valued at exactly zero.
func ComputeValuation(base, max, percentage, adjustedEBITDA float64) (float64, int64) {
	final := base + (max-base)*clamp01(percentage)
	if adjustedEBITDA < 0 || math.IsNaN(adjustedEBITDA) {
		return final, 0
	}
	estimate := math.Round(adjustedEBITDA * final)
	if math.IsNaN(estimate) || estimate < 0 {
		return final, 0
	}
	if estimate >= math.MaxInt64 {
		return final, math.MaxInt64
	}
	return final, int64(estimate)
}

// AdjustedEBITDA is reported EBITDA plus normalisation add-backs. Missing or
// non-finite figures count as zero.
func AdjustedEBITDA(answers domain.Answers) float64 {
	return finite(answers, KeyEBITDA) + finite(answers, KeyAdjustments)
}

func finite(answers domain.Answers, key string) float64 {
	v, ok := answers.Number(key)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Evaluate runs the full pipeline: scoring, aggregation, multiple selection,
// valuation and roadmap.
func Evaluate(questions []domain.Question, industries domain.IndustryTable, answers domain.Answers) domain.ValuationResult {
	scores := ScoreAnswers(questions, answers)
	maxima := CategoryMaxima(questions)
	pct := AggregatePercentage(scores, maxima)

	ebitda := AdjustedEBITDA(answers)
	sector, _ := answers.Text(KeySector)
	subSector, _ := answers.Text(KeySubSector)
	m := SelectMultiple(ebitda, sector, subSector, industries)
	final, estimate := ComputeValuation(m.Base, m.Max, pct, ebitda)

	return domain.ValuationResult{
		Stage:              m.Stage,
		AdjustedEBITDA:     ebitda,
		BaseMultiple:       m.Base,
		MaxMultiple:        m.Max,
		IndustryFactor:     m.Factor,
		FinalMultiple:      final,
		EstimatedValuation: estimate,
		ScorePercentage:    pct,
		Scores:             scores,
		Maxima:             maxima,
		Roadmap:            GenerateRoadmap(scores, maxima, answers),
	}
}
