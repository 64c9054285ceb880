package s2d

import (
	"valuation-service/internal/domain"
	"valuation-service/internal/rangetable"
)

// NotApplicable is returned for scores outside every declared band.
const NotApplicable = "N/A"

// Narrative axes.
const (
	AxisProcessMaturity   = "process_maturity"
	AxisOwnerIndependence = "owner_independence"
	AxisDelivery          = GroupDelivery
	AxisCommunication     = GroupCommunication
)

type band = rangetable.Band[string]

var narrativeTables = []struct {
	axis  string
	table rangetable.Table[string]
	score func(domain.S2DResult) int
}{
	{
		axis: AxisProcessMaturity,
		table: rangetable.New(NotApplicable,
			band{Floor: 0, Value: "Delivery runs on memory and goodwill. Each client experience depends on who picks up the work, which a buyer will see as risk."},
			band{Floor: 22, Value: "Parts of the delivery process are repeatable, but key steps are still informal. Writing down the remaining steps will make results consistent."},
			band{Floor: 43, Value: "Most of the sale-to-delivery journey is documented and tracked. The next gain comes from measuring each stage and reviewing it regularly."},
			band{Floor: 60, Value: "Delivery is a well-run system. Clients get the same experience every time and a buyer can see how it works without you."},
		).WithCeiling(float64(len(Pairs) * ProcessOptionMax)),
		score: func(r domain.S2DResult) int { return r.ProcessMaturity },
	},
	{
		axis: AxisOwnerIndependence,
		table: rangetable.New(NotApplicable,
			band{Floor: 0, Value: "You are the delivery engine. Almost every step waits on you, which caps growth and the price a buyer will pay."},
			band{Floor: 16, Value: "Your team carries part of the load, but you remain the fallback for most steps."},
			band{Floor: 31, Value: "The team runs most of delivery and involves you for exceptions."},
			band{Floor: 43, Value: "Delivery runs without you. Your time is free for strategy and growth."},
		).WithCeiling(float64(len(Pairs) * OwnerOptionMax)),
		score: func(r domain.S2DResult) int { return r.OwnerIndependence },
	},
	{
		axis: AxisDelivery,
		table: rangetable.New(NotApplicable,
			band{Floor: 0, Value: "Scheduling, execution and quality checks vary from job to job. Standardising them is the quickest win."},
			band{Floor: 8, Value: "Core delivery is partly standardised. Close the gaps in quality control to protect margins."},
			band{Floor: 15, Value: "Core delivery is consistent and checked before it reaches the client."},
		).WithCeiling(21),
		score: func(r domain.S2DResult) int { return r.SubScores[GroupDelivery] },
	},
	{
		axis: AxisCommunication,
		table: rangetable.New(NotApplicable,
			band{Floor: 0, Value: "Clients hear from you when something goes wrong. Regular updates would lift satisfaction and referrals."},
			band{Floor: 5, Value: "Clients are updated, but not on a fixed rhythm. Agree an update cadence for every engagement."},
			band{Floor: 10, Value: "Clients are kept informed and issues are resolved through a clear process."},
		).WithCeiling(14),
		score: func(r domain.S2DResult) int { return r.SubScores[GroupCommunication] },
	},
}

// Narratives selects one paragraph per axis, independently.
func Narratives(r domain.S2DResult) []domain.S2DNarrative {
	out := make([]domain.S2DNarrative, 0, len(narrativeTables))
	for _, nt := range narrativeTables {
		score := nt.score(r)
		out = append(out, domain.S2DNarrative{
			Axis:  nt.axis,
			Score: score,
			Text:  nt.table.Lookup(float64(score)),
		})
	}
	return out
}

// NarrativeFor looks up the paragraph for a single axis and score.
func NarrativeFor(axis string, score int) string {
	for _, nt := range narrativeTables {
		if nt.axis == axis {
			return nt.table.Lookup(float64(score))
		}
	}
	return NotApplicable
}
