package valuation

import (
	"sort"

	"valuation-service/internal/domain"
)

// RoadmapSize caps the number of improvement priorities returned.
const RoadmapSize = 3

// BalancedMessage is shown in place of an empty roadmap.
const BalancedMessage = "Your business scores well across every area. Focus on sustaining what works and revisit this assessment annually."

type refinement struct {
	key    string
	value  string
	action string
}

type template struct {
	rationale   string
	actions     []string
	refinements []refinement
}

var templates = map[domain.Category]template{
	domain.CategoryExpansion: {
		rationale: "Buyers pay for a credible growth story. Without a plan, future upside is discounted.",
		actions: []string{
			"Write a three-year growth plan with revenue targets by channel.",
			"Identify one adjacent market or segment and size the opportunity.",
			"Tie the plan to a budget and review progress quarterly.",
		},
		refinements: []refinement{
			{key: "growth_plan", value: "none", action: "Start with a one-page plan before investing in new markets."},
		},
	},
	domain.CategoryMarketing: {
		rationale: "Predictable lead flow shows a buyer that revenue does not depend on personal relationships.",
		actions: []string{
			"Track where every new customer comes from for the next 90 days.",
			"Add at least one paid or content channel alongside referrals.",
			"Set a marketing budget and measure cost per acquired customer.",
		},
		refinements: []refinement{
			{key: "lead_sources", value: "referrals_only", action: "Formalise the referral programme so it survives an ownership change."},
		},
	},
	domain.CategoryProfitability: {
		rationale: "Consistent, growing profit is the single largest driver of the multiple a buyer will pay.",
		actions: []string{
			"Review pricing and gross margin by product or service line.",
			"Separate owner expenses from operating costs to present clean EBITDA.",
		},
		refinements: []refinement{
			{key: "profit_trend", value: "declining", action: "Diagnose the profit decline: build a three-year bridge of revenue, margin and overhead changes."},
			{key: "recurring_revenue", value: "none", action: "Pilot a maintenance or subscription offer with your top ten customers."},
		},
	},
	domain.CategoryOffering: {
		rationale: "Differentiated offerings defend margins and make the business harder to replicate.",
		actions: []string{
			"Document what customers say makes you different and test it in your messaging.",
			"Package your best-selling service into a named, repeatable offer.",
		},
		refinements: []refinement{
			{key: "pricing_power", value: "price_taker", action: "Trial a modest price increase on new customers and measure churn."},
		},
	},
	domain.CategoryWorkforce: {
		rationale: "A business that depends on its owner is worth less, because the buyer inherits that risk.",
		actions: []string{
			"List the decisions only you make today and delegate one each month.",
			"Appoint or develop a second-in-command for operations.",
			"Introduce retention incentives for key staff.",
		},
		refinements: []refinement{
			{key: "owner_dependence", value: "fully", action: "Take a planned week away and record every issue that needed you."},
		},
	},
	domain.CategorySystems: {
		rationale: "Documented systems let a buyer verify how the business runs and scale it without you.",
		actions: []string{
			"Write down the five processes that generate most of your revenue.",
			"Move to monthly financial statements reviewed against budget.",
			"Consolidate customer, job and billing data into one system.",
		},
		refinements: []refinement{
			{key: "financial_reporting", value: "annual", action: "Engage a bookkeeper to close the books every month."},
		},
	},
	domain.CategoryMarket: {
		rationale: "Buyers discount businesses exposed to shrinking markets or a handful of customers.",
		actions: []string{
			"Reduce reliance on your largest customer by growing the next tier.",
			"Track competitor pricing and positioning twice a year.",
		},
		refinements: []refinement{
			{key: "customer_concentration", value: "over_50", action: "Put a long-term contract in place with your largest customer."},
		},
	},
}

// GenerateRoadmap lists the lowest scoring categories as improvement items,
// weakest first. Categories with nothing attainable, at full marks or without
// a template are skipped. Ties keep category declaration order.
func GenerateRoadmap(scores, maxima domain.ScoreVector, answers domain.Answers) []domain.RoadmapItem {
	type ranked struct {
		category domain.Category
		pct      float64
	}

	var candidates []ranked
	for _, c := range orderedCategories(maxima) {
		pct, ok := categoryPercentage(scores[c], maxima[c])
		if !ok || pct >= 1 {
			continue
		}
		if _, ok := templates[c]; !ok {
			continue
		}
		candidates = append(candidates, ranked{category: c, pct: pct})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pct < candidates[j].pct
	})
	if len(candidates) > RoadmapSize {
		candidates = candidates[:RoadmapSize]
	}

	items := make([]domain.RoadmapItem, 0, len(candidates))
	for _, cand := range candidates {
		tpl := templates[cand.category]
		actions := append([]string(nil), tpl.actions...)
		for _, r := range tpl.refinements {
			if v, ok := answers.Text(r.key); ok && v == r.value {
				actions = append(actions, r.action)
			}
		}
		items = append(items, domain.RoadmapItem{
			Category:  cand.category,
			Title:     cand.category.Title(),
			Score:     scores[cand.category],
			Max:       maxima[cand.category],
			Rationale: tpl.rationale,
			Actions:   actions,
		})
	}
	return items
}

// RoadmapSummary returns the headline shown above the roadmap.
func RoadmapSummary(items []domain.RoadmapItem) string {
	if len(items) == 0 {
		return BalancedMessage
	}
	return "Start with " + items[0].Title + ": it offers the largest lift to your valuation."
}

// orderedCategories yields the enumerated categories first, then any others
// found in v sorted by name so output stays deterministic.
func orderedCategories(v domain.ScoreVector) []domain.Category {
	out := make([]domain.Category, 0, len(v))
	out = append(out, domain.Categories...)
	var extra []domain.Category
	for c := range v {
		if !c.Known() {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
