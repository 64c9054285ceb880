package rangetable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupHalfOpenBands(t *testing.T) {
	table := New("N/A",
		Band[string]{Floor: 0, Value: "low"},
		Band[string]{Floor: 15, Value: "high"},
		Band[string]{Floor: 8, Value: "mid"},
	).WithCeiling(21)

	tests := []struct {
		x    float64
		want string
		ok   bool
	}{
		{0, "low", true},
		{7, "low", true},
		{7.99, "low", true},
		{8, "mid", true},
		{14, "mid", true},
		{15, "high", true},
		{21, "high", true},
		{21.5, "N/A", false},
		{-1, "N/A", false},
		{math.NaN(), "N/A", false},
		{math.Inf(1), "N/A", false},
	}
	for _, tt := range tests {
		got, ok := table.Find(tt.x)
		assert.Equal(t, tt.want, got, "x=%v", tt.x)
		assert.Equal(t, tt.ok, ok, "x=%v", tt.x)
	}
}

func TestDuplicateFloorFirstDeclaredWins(t *testing.T) {
	table := New(0, Band[int]{Floor: 5, Value: 1}, Band[int]{Floor: 5, Value: 2})
	assert.Equal(t, 1, table.Lookup(6))
}

func TestNegativeInfinityFloorCatchesEverything(t *testing.T) {
	table := New("", Band[string]{Floor: math.Inf(-1), Value: "any"})
	assert.Equal(t, "any", table.Lookup(-1e12))
	assert.Equal(t, "", table.Lookup(math.NaN()))
}

func TestZeroTable(t *testing.T) {
	var table Table[string]
	got, ok := table.Find(10)
	assert.False(t, ok)
	assert.Equal(t, "", got)
}

func TestBandsAscending(t *testing.T) {
	table := New("", Band[string]{Floor: 10, Value: "b"}, Band[string]{Floor: 0, Value: "a"})
	bands := table.Bands()
	assert.Equal(t, []float64{0, 10}, []float64{bands[0].Floor, bands[1].Floor})
}
