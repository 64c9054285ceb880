package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullAnswers() map[string]any {
	return map[string]any{
		"contact_name":             "Dana Owner",
		"email":                    "dana@example.com",
		"company_name":             "Acme HVAC",
		"industry_sector":          "Home Services",
		"industry_sub_sector":      "HVAC",
		"annual_revenue":           4000000,
		"ebitda":                   "650,000",
		"profit_trend":             "growing",
		"recurring_revenue":        "25_50",
		"growth_plan":              "written",
		"new_markets":              "exploring",
		"lead_sources":             "few",
		"marketing_budget":         "planned",
		"offering_differentiation": "clear",
		"pricing_power":            "some",
		"owner_dependence":         "partly",
		"management_team":          "partial",
		"documented_processes":     "some",
		"financial_reporting":      "monthly",
		"market_growth":            "growing",
		"customer_concentration":   "10_25",
	}
}

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func (c apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	return c.doKey("", method, path, body, out)
}

func (c apiClient) doKey(key, method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(AccessKeyHeader, key)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func newAPI(t *testing.T) (apiClient, *captureMailer) {
	t.Helper()
	mailer := &captureMailer{}
	server := httptest.NewServer(NewRouter(newTestService(mailer), RouterOptions{
		Metrics: promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	}))
	t.Cleanup(server.Close)
	return apiClient{t: t, server: server}, mailer
}

type submissionBody struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Completed bool           `json:"completed"`
	Answers   map[string]any `json:"answers"`
	Valuation *struct {
		EstimatedValuation int64  `json:"estimatedValuation"`
		Stage              string `json:"stage"`
	} `json:"valuation"`
	Summary   string `json:"summary"`
	AccessKey string `json:"accessKey"`
}

func TestAssessmentLifecycle(t *testing.T) {
	api, _ := newAPI(t)

	var started submissionBody
	status := api.do(http.MethodPost, "/api/assessments", map[string]string{
		"email":       "Dana@Example.com",
		"companyName": "Acme HVAC",
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, started.ID)
	require.NotEmpty(t, started.AccessKey)
	assert.Equal(t, "dana@example.com", started.Email)
	key := started.AccessKey
	base := "/api/assessments/" + started.ID

	var saved submissionBody
	status = api.doKey(key, http.MethodPut, base+"/answers", map[string]any{
		"answers": map[string]any{"profit_trend": "growing"},
	}, &saved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "growing", saved.Answers["profit_trend"])

	var missing errorBody
	status = api.doKey(key, http.MethodPost, base+"/submit", map[string]any{
		"answers": map[string]any{"profit_trend": "growing"},
	}, &missing)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, missing.Missing, "annual_revenue")

	var submitted submissionBody
	status = api.doKey(key, http.MethodPost, base+"/submit", map[string]any{
		"answers": fullAnswers(),
	}, &submitted)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, submitted.Valuation)
	assert.True(t, submitted.Completed)
	assert.Equal(t, int64(3_254_483), submitted.Valuation.EstimatedValuation)
	assert.Equal(t, "Established", submitted.Valuation.Stage)
	assert.NotEmpty(t, submitted.Summary)

	var fetched submissionBody
	require.Equal(t, http.StatusOK, api.doKey(key, http.MethodGet, base, nil, &fetched))
	assert.True(t, fetched.Completed)

	var conflict errorBody
	status = api.doKey(key, http.MethodPost, base+"/continuation", nil, &conflict)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAssessmentRequiresAccessKey(t *testing.T) {
	api, _ := newAPI(t)

	var started submissionBody
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/assessments", map[string]string{
		"email": "owner@example.com",
	}, &started))
	base := "/api/assessments/" + started.ID

	var body errorBody
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, base, nil, &body))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, base+"/answers", map[string]any{
		"answers": map[string]any{"ebitda": 1},
	}, &body))
	assert.Equal(t, http.StatusForbidden, api.doKey("wrong-key", http.MethodPost, base+"/submit", map[string]any{
		"answers": fullAnswers(),
	}, &body))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, base+"/continuation", nil, &body))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, base+"/s2d", map[string]any{"answers": map[string]any{}}, &body))

	var fetched submissionBody
	require.Equal(t, http.StatusOK, api.doKey(started.AccessKey, http.MethodGet, base, nil, &fetched))
	assert.NotContains(t, fetched.Answers, "ebitda")

	// listing by email is not part of the API
	resp, err := api.server.Client().Get(api.server.URL + "/api/assessments?email=owner@example.com")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestContinuationEndpoints(t *testing.T) {
	api, mailer := newAPI(t)

	var started submissionBody
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/assessments", map[string]string{
		"email": "dana@example.com",
	}, &started))

	var sent map[string]any
	require.Equal(t, http.StatusAccepted, api.doKey(started.AccessKey, http.MethodPost, "/api/assessments/"+started.ID+"/continuation", nil, &sent))
	assert.Equal(t, true, sent["sent"])
	assert.NotContains(t, sent, "token")

	token := mailer.lastToken(t)
	var resumed submissionBody
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/continuations/verify", map[string]string{"token": token}, &resumed))
	assert.Equal(t, started.ID, resumed.ID)
	require.NotEmpty(t, resumed.AccessKey)
	assert.NotEqual(t, started.AccessKey, resumed.AccessKey)

	var body errorBody
	assert.Equal(t, http.StatusForbidden, api.doKey(started.AccessKey, http.MethodGet, "/api/assessments/"+started.ID, nil, &body))
	assert.Equal(t, http.StatusOK, api.doKey(resumed.AccessKey, http.MethodGet, "/api/assessments/"+started.ID, nil, &resumed))

	var gone errorBody
	assert.Equal(t, http.StatusGone, api.do(http.MethodPost, "/api/continuations/verify", map[string]string{"token": token}, &gone))

	var unknown errorBody
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/continuations/verify", map[string]string{"token": "nope"}, &unknown))
}

func TestContinuationByEmail(t *testing.T) {
	api, mailer := newAPI(t)

	var started submissionBody
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/assessments", map[string]string{
		"email": "dana@example.com",
	}, &started))

	var sent map[string]any
	require.Equal(t, http.StatusAccepted, api.do(http.MethodPost, "/api/continuations", map[string]string{"email": "DANA@example.com"}, &sent))
	assert.Equal(t, map[string]any{"sent": true}, sent)

	var resumed submissionBody
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/continuations/verify", map[string]string{"token": mailer.lastToken(t)}, &resumed))
	assert.Equal(t, started.ID, resumed.ID)

	// unknown addresses get the same answer
	sent = nil
	require.Equal(t, http.StatusAccepted, api.do(http.MethodPost, "/api/continuations", map[string]string{"email": "nobody@example.com"}, &sent))
	assert.Equal(t, map[string]any{"sent": true}, sent)
	mailer.mu.Lock()
	assert.Len(t, mailer.links, 1)
	mailer.mu.Unlock()

	var body errorBody
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/continuations", map[string]string{"email": "nope"}, &body))
}

func TestErrorMapping(t *testing.T) {
	api, _ := newAPI(t)

	var body errorBody
	assert.Equal(t, http.StatusNotFound, api.doKey("any", http.MethodGet, "/api/assessments/missing", nil, &body))
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/assessments", map[string]string{"email": "nope"}, &body))
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/preview", map[string]any{"section": "unknown"}, &body))
	assert.Equal(t, []string{"section"}, body.Invalid)
}

func TestMalformedBody(t *testing.T) {
	api, _ := newAPI(t)
	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/assessments", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadOnlyEndpoints(t *testing.T) {
	api, _ := newAPI(t)

	var bank struct {
		ID       string `json:"id"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/questionnaire", nil, &bank))
	assert.NotEmpty(t, bank.ID)
	assert.NotEmpty(t, bank.Sections)

	var battery s2dBattery
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/s2d", nil, &battery))
	assert.Len(t, battery.Pairs, 10)
	assert.Equal(t, "s2d_q1_process", battery.Pairs[0].ProcessKey)

	resp, err := api.server.Client().Get(api.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = api.server.Client().Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
