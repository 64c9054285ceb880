package s2d

import (
	"fmt"
	"sort"
	"strings"

	"valuation-service/internal/domain"
)

var axisTitles = map[string]string{
	AxisProcessMaturity:   "Process maturity",
	AxisOwnerIndependence: "Owner independence",
	AxisDelivery:          "Delivery",
	AxisCommunication:     "Client communication",
}

// Report renders the result as markdown for the emailed summary.
func Report(r domain.S2DResult) string {
	var b strings.Builder

	b.WriteString("# Sale-to-Delivery Assessment\n\n")
	fmt.Fprintf(&b, "- **Process maturity:** %d / %d\n", r.ProcessMaturity, r.ProcessMaturityMax)
	fmt.Fprintf(&b, "- **Owner independence:** %d / %d\n\n", r.OwnerIndependence, r.OwnerIndependenceMax)

	b.WriteString("## Where you stand\n\n")
	for _, n := range r.Narratives {
		title := axisTitles[n.Axis]
		if title == "" {
			title = n.Axis
		}
		fmt.Fprintf(&b, "### %s (%d)\n\n%s\n\n", title, n.Score, n.Text)
	}

	b.WriteString("## Sub-scores\n\n")
	for _, g := range SubScoreGroups {
		fmt.Fprintf(&b, "- %s: %d / %d\n", g.Name, r.SubScores[g.Name], len(g.Keys)*ProcessOptionMax)
	}
	b.WriteString("\n")

	b.WriteString("## Owner strategic positioning\n\n")
	if len(r.Delegation) == 0 && len(r.ActiveManagement) == 0 {
		b.WriteString("No stage stands out for delegation or closer owner involvement.\n")
	}
	if len(r.Delegation) > 0 {
		b.WriteString("Ready to delegate: the process is mature but still runs through you.\n\n")
		writeFlags(&b, r.Delegation)
	}
	if len(r.ActiveManagement) > 0 {
		b.WriteString("Needs your attention: the team runs these alone without a solid process.\n\n")
		writeFlags(&b, r.ActiveManagement)
	}
	return b.String()
}

func writeFlags(b *strings.Builder, flags []domain.S2DPairFlag) {
	sorted := append([]domain.S2DPairFlag(nil), flags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pair < sorted[j].Pair })
	for _, f := range sorted {
		fmt.Fprintf(b, "- %s (process %d, owner %d)\n", f.Topic, f.ProcessScore, f.OwnerScore)
	}
	b.WriteString("\n")
}
