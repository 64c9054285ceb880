package salesforce

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"valuation-service/internal/domain"
)

const (
	leadObject = "Lead"
	leadSource = "Valuation Assessment"
)

// Lead is the slice of a Salesforce Lead needed to find an existing record.
type Lead struct {
	ID string `json:"Id" salesforce:"Id"`
}

// LeadSync upserts one Lead per respondent email with the latest valuation.
type LeadSync struct {
	client Client
}

func NewLeadSync(client Client) *LeadSync {
	return &LeadSync{client: client}
}

// SyncSubmission implements app.CRMSync.
func (s *LeadSync) SyncSubmission(ctx context.Context, sub domain.Submission) error {
	fields := LeadFields(sub)

	var leads []Lead
	soql := fmt.Sprintf("SELECT Id FROM Lead WHERE Email = '%s' ORDER BY CreatedDate DESC LIMIT 1", escapeSOQL(sub.Email))
	if err := s.client.Query(ctx, soql, &leads); err != nil {
		return err
	}
	if len(leads) > 0 {
		if err := s.client.UpdateOne(ctx, leadObject, leads[0].ID, fields); err != nil {
			return err
		}
		zap.L().Info("salesforce lead updated", zap.String("id", sub.ID), zap.String("lead", leads[0].ID))
		return nil
	}

	id, err := s.client.InsertOne(ctx, leadObject, fields)
	if err != nil {
		return err
	}
	zap.L().Info("salesforce lead created", zap.String("id", sub.ID), zap.String("lead", id))
	return nil
}

// LeadFields maps a submission onto Lead fields. LastName and Company are
// required by Salesforce and get placeholders when unanswered.
func LeadFields(sub domain.Submission) map[string]any {
	first, last := splitName(sub.Answers)
	company := sub.CompanyName
	if company == "" {
		company = "Unknown"
	}
	fields := map[string]any{
		"FirstName":                  first,
		"LastName":                   last,
		"Email":                      sub.Email,
		"Company":                    company,
		"LeadSource":                 leadSource,
		"Valuation_Assessment_Id__c": sub.ID,
	}
	if sector, ok := sub.Answers.Text("industry_sector"); ok {
		fields["Industry"] = sector
	}
	if revenue, ok := sub.Answers.Number("annual_revenue"); ok && !math.IsNaN(revenue) && !math.IsInf(revenue, 0) {
		fields["AnnualRevenue"] = revenue
	}
	if v := sub.Valuation; v != nil {
		fields["Valuation_Estimate__c"] = v.EstimatedValuation
		fields["Valuation_Stage__c"] = v.Stage
		fields["Valuation_Multiple__c"] = math.Round(v.FinalMultiple*100) / 100
		fields["Valuation_Score__c"] = math.Round(v.ScorePercentage * 100)
		if len(v.Roadmap) > 0 {
			fields["Valuation_Top_Priority__c"] = v.Roadmap[0].Title
		}
	}
	return fields
}

func splitName(answers domain.Answers) (string, string) {
	name, _ := answers.Text("contact_name")
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func escapeSOQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
