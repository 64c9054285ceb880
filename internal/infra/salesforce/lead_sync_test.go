package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-service/internal/domain"
)

// fakeOrg records the REST calls made against a fake Salesforce org.
type fakeOrg struct {
	mu        sync.Mutex
	existing  string
	queries   []string
	inserted  map[string]any
	updated   map[string]any
	updatedID string
}

func (o *fakeOrg) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.Contains(r.URL.Path, "/query"):
		o.queries = append(o.queries, r.URL.Query().Get("q"))
		records := []map[string]any{}
		if o.existing != "" {
			records = append(records, map[string]any{
				"attributes": map[string]any{"type": "Lead"},
				"Id":         o.existing,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"totalSize": len(records), "done": true, "records": records})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/sobjects/Lead"):
		_ = json.NewDecoder(r.Body).Decode(&o.inserted)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "00Qnew", "success": true, "errors": []any{}})
	case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/sobjects/Lead/"):
		o.updatedID = r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		_ = json.NewDecoder(r.Body).Decode(&o.updated)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSync(t *testing.T, org *fakeOrg) *LeadSync {
	t.Helper()
	ts := httptest.NewServer(org)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return NewLeadSync(NewClient(sf, 0))
}

func completedSubmission() domain.Submission {
	return domain.Submission{
		ID:          "a1",
		Email:       "dana@example.com",
		CompanyName: "Acme HVAC",
		Answers: domain.Answers{
			"contact_name":    "Dana Q Owner",
			"industry_sector": "Home Services",
			"annual_revenue":  "4,000,000",
		},
		Valuation: &domain.ValuationResult{
			Stage:              "Established",
			FinalMultiple:      5.0068965517,
			EstimatedValuation: 3_254_483,
			ScorePercentage:    45.0 / 87.0,
			Roadmap:            []domain.RoadmapItem{{Category: domain.CategoryWorkforce, Title: "Team & Leadership"}},
		},
		Completed: true,
	}
}

func TestLeadSyncCreatesLead(t *testing.T) {
	org := &fakeOrg{}
	ls := newTestSync(t, org)

	require.NoError(t, ls.SyncSubmission(context.Background(), completedSubmission()))

	require.Len(t, org.queries, 1)
	assert.Contains(t, org.queries[0], "Email = 'dana@example.com'")
	require.NotNil(t, org.inserted)
	assert.Equal(t, "Dana Q", org.inserted["FirstName"])
	assert.Equal(t, "Owner", org.inserted["LastName"])
	assert.Equal(t, "Acme HVAC", org.inserted["Company"])
	assert.Equal(t, "Established", org.inserted["Valuation_Stage__c"])
	assert.EqualValues(t, 3_254_483, org.inserted["Valuation_Estimate__c"])
	assert.EqualValues(t, 4_000_000, org.inserted["AnnualRevenue"])
	assert.Nil(t, org.updated)
}

func TestLeadSyncUpdatesExistingLead(t *testing.T) {
	org := &fakeOrg{existing: "00Qold"}
	ls := newTestSync(t, org)

	require.NoError(t, ls.SyncSubmission(context.Background(), completedSubmission()))

	assert.Nil(t, org.inserted)
	assert.Equal(t, "00Qold", org.updatedID)
	assert.Equal(t, "Team & Leadership", org.updated["Valuation_Top_Priority__c"])
}

func TestLeadFieldsPlaceholders(t *testing.T) {
	fields := LeadFields(domain.Submission{ID: "a2", Email: "x@example.com"})

	assert.Equal(t, "Unknown", fields["LastName"])
	assert.Equal(t, "Unknown", fields["Company"])
	assert.NotContains(t, fields, "Valuation_Estimate__c")
}

func TestEscapeSOQL(t *testing.T) {
	assert.Equal(t, `o\'brien@example.com`, escapeSOQL("o'brien@example.com"))
}
