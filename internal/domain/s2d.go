package domain

// Positioning classifies one sale-to-delivery question pair.
type Positioning string

const (
	PositionDelegate Positioning = "delegation_candidate"
	PositionManage   Positioning = "active_management_candidate"
)

// S2DAnswerDetail keeps the text of an answered question for narrative reports.
type S2DAnswerDetail struct {
	Index    string `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
}

// S2DPairFlag marks a question pair for the owner strategic positioning view.
type S2DPairFlag struct {
	Pair         int         `json:"pair"`
	Topic        string      `json:"topic"`
	ProcessScore int         `json:"processScore"`
	OwnerScore   int         `json:"ownerScore"`
	Position     Positioning `json:"position"`
}

// S2DNarrative is the paragraph chosen for one report axis.
type S2DNarrative struct {
	Axis  string `json:"axis"`
	Score int    `json:"score"`
	Text  string `json:"text"`
}

// S2DResult is the scored sale-to-delivery sub-assessment.
type S2DResult struct {
	ProcessMaturity      int                          `json:"processMaturityScore"`
	ProcessMaturityMax   int                          `json:"processMaturityMax"`
	OwnerIndependence    int                          `json:"ownerIndependenceScore"`
	OwnerIndependenceMax int                          `json:"ownerIndependenceMax"`
	SubScores            map[string]int               `json:"subScores"`
	Details              map[string][]S2DAnswerDetail `json:"details"`
	Delegation           []S2DPairFlag                `json:"delegationCandidates"`
	ActiveManagement     []S2DPairFlag                `json:"activeManagementCandidates"`
	Narratives           []S2DNarrative               `json:"narratives"`
}
