package valuation

import (
	"math"

	"valuation-service/internal/domain"
	"valuation-service/internal/rangetable"
)

// Stage names, lowest to highest.
const (
	StagePreRevenue    = "Pre-Revenue/Negative"
	StageStartup       = "Startup"
	StageEstablished   = "Established"
	StageGrowth        = "Growth"
	StageScaleup       = "Scaleup"
	StageMatureScaleup = "Mature Scaleup"
)

// Tier is a stage with its canonical multiple range.
type Tier struct {
	Stage string
	Base  float64
	Max   float64
}

// Multiple is the selected stage and industry-adjusted multiple range.
type Multiple struct {
	Stage  string  `json:"stage"`
	Base   float64 `json:"base"`
	Max    float64 `json:"max"`
	Factor float64 `json:"factor"`
}

// NeutralFactor leaves tier multiples untouched.
const NeutralFactor = 1.0

// Tiers are keyed on whole-dollar adjusted EBITDA, so anything at or below
// zero is pre-revenue and a single dollar of profit is a startup.
var Tiers = rangetable.New(
	Tier{Stage: StagePreRevenue, Base: 1.0, Max: 2.0},
	rangetable.Band[Tier]{Floor: math.Inf(-1), Value: Tier{Stage: StagePreRevenue, Base: 1.0, Max: 2.0}},
	rangetable.Band[Tier]{Floor: 1, Value: Tier{Stage: StageStartup, Base: 2.0, Max: 3.5}},
	rangetable.Band[Tier]{Floor: 250_000, Value: Tier{Stage: StageEstablished, Base: 3.0, Max: 6.0}},
	rangetable.Band[Tier]{Floor: 1_000_000, Value: Tier{Stage: StageGrowth, Base: 4.0, Max: 7.0}},
	rangetable.Band[Tier]{Floor: 3_000_000, Value: Tier{Stage: StageScaleup, Base: 5.0, Max: 8.5}},
	rangetable.Band[Tier]{Floor: 10_000_000, Value: Tier{Stage: StageMatureScaleup, Base: 6.0, Max: 10.0}},
)

// IndustryFactor resolves the adjustment for a sector pair. Unknown pairs and
// factors that are not strictly positive and finite fall back to NeutralFactor.
func IndustryFactor(industries domain.IndustryTable, sector, subSector string) float64 {
	f, ok := industries.Factor(sector, subSector)
	if !ok || f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return NeutralFactor
	}
	return f
}

// SelectMultiple buckets adjusted EBITDA into a stage and scales its multiple
// range by the industry factor.
func SelectMultiple(adjustedEBITDA float64, sector, subSector string, industries domain.IndustryTable) Multiple {
	tier := Tiers.Lookup(adjustedEBITDA)
	factor := IndustryFactor(industries, sector, subSector)
	return Multiple{
		Stage:  tier.Stage,
		Base:   tier.Base * factor,
		Max:    tier.Max * factor,
		Factor: factor,
	}
}
