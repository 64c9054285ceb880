// Package valuation turns questionnaire answers into a heuristic business
// valuation. Everything here is pure: each call builds fresh output from its
// inputs and is safe to run concurrently.
package valuation

import (
	"math"

	"valuation-service/internal/domain"
)

// newVector returns a vector holding every enumerated category at zero.
func newVector() domain.ScoreVector {
	v := make(domain.ScoreVector, len(domain.Categories))
	for _, c := range domain.Categories {
		v[c] = 0
	}
	return v
}

// ScoreAnswers sums the score of each selected option per category. Options are
// matched on their machine value, never their label. Unanswered or unmatched
// questions contribute nothing.
func ScoreAnswers(questions []domain.Question, answers domain.Answers) domain.ScoreVector {
	scores := newVector()
	for _, q := range questions {
		if q.Category == "" {
			continue
		}
		choice, ok := q.Input.(domain.SingleChoice)
		if !ok {
			continue
		}
		if _, seen := scores[q.Category]; !seen {
			scores[q.Category] = 0
		}
		value, ok := answers.Text(q.Key)
		if !ok {
			continue
		}
		if opt, ok := choice.Match(value); ok {
			scores[q.Category] += opt.Score
		}
	}
	return scores
}

// CategoryMaxima sums the best option score of every question per category.
func CategoryMaxima(questions []domain.Question) domain.ScoreVector {
	maxima := newVector()
	for _, q := range questions {
		if q.Category == "" {
			continue
		}
		choice, ok := q.Input.(domain.SingleChoice)
		if !ok {
			continue
		}
		maxima[q.Category] += choice.BestScore()
	}
	return maxima
}

// AggregatePercentage returns earned over attainable points in [0, 1], or 0 when
// nothing is attainable.
func AggregatePercentage(scores, maxima domain.ScoreVector) float64 {
	earned, attainable := 0, 0
	for c, m := range maxima {
		if m <= 0 {
			continue
		}
		attainable += m
		earned += scores[c]
	}
	if attainable == 0 {
		return 0
	}
	return clamp01(float64(earned) / float64(attainable))
}

// categoryPercentage is score over max for one category; ok is false when the
// category has nothing attainable.
func categoryPercentage(score, max int) (float64, bool) {
	if max <= 0 {
		return 0, false
	}
	return clamp01(float64(score) / float64(max)), true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
