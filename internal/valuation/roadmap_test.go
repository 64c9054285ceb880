package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-service/internal/domain"
)

func fullMaxima() domain.ScoreVector {
	return domain.ScoreVector{
		domain.CategoryExpansion:     10,
		domain.CategoryMarketing:     10,
		domain.CategoryProfitability: 10,
		domain.CategoryOffering:      10,
		domain.CategoryWorkforce:     10,
		domain.CategorySystems:       10,
		domain.CategoryMarket:        10,
	}
}

func TestRoadmapPicksLowestPercentages(t *testing.T) {
	scores := domain.ScoreVector{
		domain.CategoryExpansion:     9,
		domain.CategoryMarketing:     2,
		domain.CategoryProfitability: 6,
		domain.CategoryOffering:      1,
		domain.CategoryWorkforce:     8,
		domain.CategorySystems:       4,
		domain.CategoryMarket:        10,
	}
	items := GenerateRoadmap(scores, fullMaxima(), nil)

	require.Len(t, items, RoadmapSize)
	assert.Equal(t, []domain.Category{domain.CategoryOffering, domain.CategoryMarketing, domain.CategorySystems},
		[]domain.Category{items[0].Category, items[1].Category, items[2].Category})
	assert.Equal(t, "Products & Services", items[0].Title)
	assert.Equal(t, 1, items[0].Score)
	assert.Equal(t, 10, items[0].Max)
	assert.NotEmpty(t, items[0].Rationale)
	for _, item := range items {
		assert.GreaterOrEqual(t, len(item.Actions), 2)
		assert.LessOrEqual(t, len(item.Actions), 4)
	}
}

func TestRoadmapTiesKeepDeclarationOrder(t *testing.T) {
	scores := domain.ScoreVector{}
	for c := range fullMaxima() {
		scores[c] = 5
	}
	items := GenerateRoadmap(scores, fullMaxima(), nil)

	require.Len(t, items, RoadmapSize)
	assert.Equal(t, domain.Categories[:3], []domain.Category{items[0].Category, items[1].Category, items[2].Category})

	again := GenerateRoadmap(scores, fullMaxima(), nil)
	assert.Equal(t, items, again)
}

func TestRoadmapUsesPercentageNotRawScore(t *testing.T) {
	maxima := domain.ScoreVector{domain.CategoryExpansion: 4, domain.CategoryMarketing: 20}
	scores := domain.ScoreVector{domain.CategoryExpansion: 1, domain.CategoryMarketing: 10}
	items := GenerateRoadmap(scores, maxima, nil)

	require.Len(t, items, 2)
	assert.Equal(t, domain.CategoryExpansion, items[0].Category)
}

func TestRoadmapNeverIncludesFullCategories(t *testing.T) {
	scores := fullMaxima()
	scores[domain.CategorySystems] = 7
	items := GenerateRoadmap(scores, fullMaxima(), nil)

	require.Len(t, items, 1)
	assert.Equal(t, domain.CategorySystems, items[0].Category)
}

func TestRoadmapEmptyWhenBalanced(t *testing.T) {
	items := GenerateRoadmap(fullMaxima(), fullMaxima(), nil)
	assert.Empty(t, items)
	assert.Equal(t, BalancedMessage, RoadmapSummary(items))
}

func TestRoadmapSkipsZeroMaxAndUnknownCategories(t *testing.T) {
	maxima := domain.ScoreVector{
		domain.CategoryExpansion:  0,
		domain.Category("legacy"): 10,
		domain.CategoryMarket:     10,
	}
	scores := domain.ScoreVector{domain.Category("legacy"): 0, domain.CategoryMarket: 5}
	items := GenerateRoadmap(scores, maxima, nil)

	require.Len(t, items, 1)
	assert.Equal(t, domain.CategoryMarket, items[0].Category)
}

func TestRoadmapRefinedByAnswers(t *testing.T) {
	scores := domain.ScoreVector{domain.CategoryProfitability: 0}
	maxima := domain.ScoreVector{domain.CategoryProfitability: 10}

	plain := GenerateRoadmap(scores, maxima, domain.Answers{"profit_trend": "growing"})
	refined := GenerateRoadmap(scores, maxima, domain.Answers{"profit_trend": "declining"})

	require.Len(t, plain, 1)
	require.Len(t, refined, 1)
	assert.Len(t, refined[0].Actions, len(plain[0].Actions)+1)
	assert.Contains(t, refined[0].Actions[len(refined[0].Actions)-1], "profit decline")
}

func TestRoadmapSummaryNamesFirstItem(t *testing.T) {
	items := []domain.RoadmapItem{{Title: "Systems & Processes"}}
	assert.Contains(t, RoadmapSummary(items), "Systems & Processes")
}
