package s2d

import (
	"valuation-service/internal/domain"
)

// Positioning thresholds on the option score scales.
const (
	delegateMinProcess = 5
	delegateMaxOwner   = 1
	manageMaxProcess   = 3
	manageOwner        = 5
)

type answered struct {
	option domain.Option
	ok     bool
}

func lookup(answers domain.Answers, key string, options []domain.Option) answered {
	v, ok := answers.Text(key)
	if !ok {
		return answered{}
	}
	for _, opt := range options {
		if opt.Value == v {
			return answered{option: opt, ok: true}
		}
	}
	return answered{}
}

// Score computes the sub-assessment. Unanswered or unrecognised answers score
// zero and are left out of details and positioning.
func Score(answers domain.Answers) domain.S2DResult {
	res := domain.S2DResult{
		ProcessMaturityMax:   len(Pairs) * ProcessOptionMax,
		OwnerIndependenceMax: len(Pairs) * OwnerOptionMax,
		SubScores:            make(map[string]int, len(SubScoreGroups)),
		Details:              make(map[string][]domain.S2DAnswerDetail),
		Delegation:           []domain.S2DPairFlag{},
		ActiveManagement:     []domain.S2DPairFlag{},
	}

	process := make(map[string]answered, len(Pairs))
	for _, p := range Pairs {
		pa := lookup(answers, ProcessKey(p.N), ProcessOptions)
		oa := lookup(answers, OwnerKey(p.N), OwnerOptions)
		process[ProcessKey(p.N)] = pa

		if pa.ok {
			res.ProcessMaturity += pa.option.Score
		}
		if oa.ok {
			res.OwnerIndependence += oa.option.Score
			res.Details[GroupOwner] = append(res.Details[GroupOwner], domain.S2DAnswerDetail{
				Index:    Index(p.N),
				Question: p.Owner,
				Answer:   oa.option.Label,
				Score:    oa.option.Score,
			})
		}
		if pa.ok && oa.ok {
			if flag, ok := position(p, pa.option.Score, oa.option.Score); ok {
				if flag.Position == domain.PositionDelegate {
					res.Delegation = append(res.Delegation, flag)
				} else {
					res.ActiveManagement = append(res.ActiveManagement, flag)
				}
			}
		}
	}

	for _, g := range SubScoreGroups {
		total := 0
		for _, key := range g.Keys {
			a := process[key]
			if !a.ok {
				continue
			}
			total += a.option.Score
			p := pairForKey(key)
			res.Details[g.Name] = append(res.Details[g.Name], domain.S2DAnswerDetail{
				Index:    Index(p.N),
				Question: p.Process,
				Answer:   a.option.Label,
				Score:    a.option.Score,
			})
		}
		res.SubScores[g.Name] = total
	}

	res.Narratives = Narratives(res)
	return res
}

// position classifies a pair by exact integer thresholds.
func position(p Pair, processScore, ownerScore int) (domain.S2DPairFlag, bool) {
	flag := domain.S2DPairFlag{Pair: p.N, Topic: p.Topic, ProcessScore: processScore, OwnerScore: ownerScore}
	switch {
	case processScore >= delegateMinProcess && ownerScore <= delegateMaxOwner && ownerScore >= 0:
		flag.Position = domain.PositionDelegate
	case processScore <= manageMaxProcess && ownerScore == manageOwner:
		flag.Position = domain.PositionManage
	default:
		return flag, false
	}
	return flag, true
}

func pairForKey(key string) Pair {
	for _, p := range Pairs {
		if ProcessKey(p.N) == key || OwnerKey(p.N) == key {
			return p
		}
	}
	return Pair{}
}
