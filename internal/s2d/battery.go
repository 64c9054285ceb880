// Package s2d scores the sale-to-delivery sub-assessment: how mature the
// process from closed sale to delivered work is, and how much of it still runs
// through the owner.
package s2d

import (
	"fmt"

	"valuation-service/internal/domain"
)

// Pair is one topic asked twice: once about the process, once about the owner.
type Pair struct {
	N       int
	Topic   string
	Process string
	Owner   string
}

// ProcessKey is the storage key of the process question of pair n.
func ProcessKey(n int) string { return fmt.Sprintf("s2d_q%d_process", n) }

// OwnerKey is the storage key of the owner question of pair n.
func OwnerKey(n int) string { return fmt.Sprintf("s2d_q%d_owner", n) }

// Index is the normalised question index shared by both halves of a pair.
func Index(n int) string { return fmt.Sprintf("q%d", n) }

// ProcessOptions score process maturity from 0 to 7.
var ProcessOptions = []domain.Option{
	{Value: "none", Label: "There is no set way; it depends on who handles it", Score: 0},
	{Value: "informal", Label: "There is a usual way, but it lives in people's heads", Score: 1},
	{Value: "documented", Label: "It is written down and mostly followed", Score: 3},
	{Value: "systemised", Label: "It is documented, trained and tracked in our tools", Score: 5},
	{Value: "optimised", Label: "It is systemised, measured and reviewed regularly", Score: 7},
}

// OwnerOptions score owner independence from 0 to 5.
var OwnerOptions = []domain.Option{
	{Value: "owner_only", Label: "I do this myself", Score: 0},
	{Value: "owner_mostly", Label: "I do most of it, with some help", Score: 1},
	{Value: "shared", Label: "The team does it and I step in often", Score: 3},
	{Value: "team", Label: "The team handles it without me", Score: 5},
}

// Pairs is the fixed battery.
var Pairs = []Pair{
	{1, "Sales handoff", "How is a closed deal handed from sales to delivery?", "How involved are you in handing new clients to delivery?"},
	{2, "Client onboarding", "How are new clients onboarded?", "How involved are you in onboarding new clients?"},
	{3, "Project kickoff", "How is scope confirmed and work kicked off?", "How involved are you in kickoff and scoping?"},
	{4, "Scheduling and resourcing", "How is work scheduled and staffed?", "How involved are you in scheduling and assigning work?"},
	{5, "Delivery execution", "How is the core work carried out?", "How involved are you in doing the core work?"},
	{6, "Quality control", "How is work checked before it reaches the client?", "How involved are you in checking quality?"},
	{7, "Client communication", "How are clients kept informed during delivery?", "How involved are you in client updates?"},
	{8, "Issue resolution", "How are complaints and problems resolved?", "How involved are you in resolving client issues?"},
	{9, "Project closeout", "How is work closed out and invoiced?", "How involved are you in closing out and invoicing?"},
	{10, "Feedback and referrals", "How is client feedback collected and used?", "How involved are you in gathering feedback and referrals?"},
}

// Sub-score group names.
const (
	GroupHandoff       = "handoff"
	GroupOnboarding    = "onboarding"
	GroupDelivery      = "delivery"
	GroupQuality       = "quality"
	GroupCommunication = "communication"
	GroupRetention     = "retention"
	// GroupOwner collects owner-question details; it is not a sub-score.
	GroupOwner = "owner_involvement"
)

// SubScoreGroups lists, per sub-score, the process keys it sums. Membership is
// fixed data and a pair may feed more than one group.
var SubScoreGroups = []struct {
	Name string
	Keys []string
}{
	{GroupHandoff, []string{"s2d_q1_process", "s2d_q2_process"}},
	{GroupOnboarding, []string{"s2d_q2_process", "s2d_q3_process"}},
	{GroupDelivery, []string{"s2d_q4_process", "s2d_q5_process", "s2d_q6_process"}},
	{GroupQuality, []string{"s2d_q6_process", "s2d_q9_process"}},
	{GroupCommunication, []string{"s2d_q7_process", "s2d_q8_process"}},
	{GroupRetention, []string{"s2d_q9_process", "s2d_q10_process"}},
}

// Maximum points per question and axis.
const (
	ProcessOptionMax = 7
	OwnerOptionMax   = 5
)

// Questions returns the battery as questionnaire questions, process first
// within each pair.
func Questions() []domain.Question {
	out := make([]domain.Question, 0, len(Pairs)*2)
	for _, p := range Pairs {
		out = append(out,
			domain.Question{
				ID:       ProcessKey(p.N),
				Section:  "s2d",
				Prompt:   p.Process,
				Key:      ProcessKey(p.N),
				Required: true,
				Input:    domain.SingleChoice{Options: ProcessOptions},
			},
			domain.Question{
				ID:       OwnerKey(p.N),
				Section:  "s2d",
				Prompt:   p.Owner,
				Key:      OwnerKey(p.N),
				Required: true,
				Input:    domain.SingleChoice{Options: OwnerOptions},
			},
		)
	}
	return out
}
