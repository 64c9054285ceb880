package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"valuation-service/internal/app"
	"valuation-service/internal/domain"
	"valuation-service/internal/infra/mail"
	"valuation-service/internal/infra/postgres"
	pgmigrations "valuation-service/internal/infra/postgres/migrations"
	infraredis "valuation-service/internal/infra/redis"
	"valuation-service/internal/questionnaire"
	"valuation-service/internal/s2d"
)

func TestAssessmentEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	require.NoError(t, pgmigrations.Apply(ctx, pgURL))
	// a second run is a no-op
	require.NoError(t, pgmigrations.Apply(ctx, pgURL))

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	loader := postgres.NewBankLoader(pool)
	_, err = loader.LoadBank(ctx, questionnaire.DefaultID)
	require.ErrorIs(t, err, domain.ErrQuestionnaireNotFound)
	require.NoError(t, loader.SaveBank(ctx, questionnaire.Default()))
	stored, err := loader.LoadBank(ctx, questionnaire.DefaultID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, len(questionnaire.Default().Questions))

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	subs := postgres.NewSubmissionRepository(pool)
	service := app.NewAssessmentService(
		subs,
		infraredis.NewTokenStore(redisClient, infraredis.DefaultRetention),
		infraredis.NewQuestionnaireRepository(redisClient, loader, 5*time.Minute),
		app.Config{QuestionnaireID: questionnaire.DefaultID, ContinuationURL: "https://example.com/continue"},
		app.WithMailer(mail.NewMailer(mail.LogSender{}, "valuation@example.com")),
	)

	sub, err := service.Start(ctx, "dana@example.com", "Acme HVAC")
	require.NoError(t, err)

	_, err = service.SaveProgress(ctx, sub.ID, domain.Answers{"profit_trend": "growing"})
	require.NoError(t, err)

	tok, err := service.RequestContinuation(ctx, sub.ID)
	require.NoError(t, err)
	resumed, err := service.Resume(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resumed.ID)
	assert.Equal(t, "growing", resumed.Answers["profit_trend"])
	_, err = service.Resume(ctx, tok.Token)
	assert.ErrorIs(t, err, domain.ErrTokenUsed)

	_, err = service.Authorize(ctx, sub.ID, sub.AccessKey)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = service.Authorize(ctx, sub.ID, resumed.AccessKey)
	require.NoError(t, err)

	done, err := service.Submit(ctx, sub.ID, finalAnswers())
	require.NoError(t, err)
	require.NotNil(t, done.Valuation)
	assert.Equal(t, "Established", done.Valuation.Stage)
	assert.Equal(t, int64(3_254_483), done.Valuation.EstimatedValuation)

	s2dAnswers := domain.Answers{}
	for n := 1; n <= 10; n++ {
		s2dAnswers[s2d.ProcessKey(n)] = "documented"
		s2dAnswers[s2d.OwnerKey(n)] = "team"
	}
	_, err = service.SubmitS2D(ctx, sub.ID, s2dAnswers)
	require.NoError(t, err)

	fetched, err := service.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Completed)
	require.NotNil(t, fetched.Valuation)
	assert.Equal(t, done.Valuation.EstimatedValuation, fetched.Valuation.EstimatedValuation)
	require.NotNil(t, fetched.S2D)
	assert.Len(t, fetched.S2D.ActiveManagement, 10)

	list, err := subs.ListByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sub.ID, list[0].ID)

	tok, err = service.RequestContinuationByEmail(ctx, "Dana@Example.com")
	require.NoError(t, err)
	assert.Empty(t, tok.Token)

	// an open assessment keeps NULL result columns
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	open := domain.Submission{
		ID:            "open-1",
		Email:         "lee@example.com",
		Answers:       domain.Answers{"profit_trend": "flat"},
		CreatedAt:     created,
		UpdatedAt:     created,
		AccessKeyHash: "abc123",
	}
	require.NoError(t, subs.Upsert(ctx, open))
	reloaded, err := subs.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Valuation)
	assert.Nil(t, reloaded.S2D)
	assert.Nil(t, reloaded.S2DAnswers)
	assert.Nil(t, reloaded.CompletedAt)
	assert.False(t, reloaded.Completed)
	assert.Equal(t, "flat", reloaded.Answers["profit_trend"])
	assert.Equal(t, "abc123", reloaded.AccessKeyHash)
	assert.True(t, created.Equal(reloaded.CreatedAt))

	// a fresh repository reads the bank back from Redis
	cached := infraredis.NewQuestionnaireRepository(redisClient, loader, 5*time.Minute)
	bank, err := cached.GetBank(ctx, questionnaire.DefaultID)
	require.NoError(t, err)
	assert.Equal(t, questionnaire.DefaultID, bank.ID)
}

func finalAnswers() domain.Answers {
	return domain.Answers{
		"contact_name":             "Dana Owner",
		"email":                    "dana@example.com",
		"company_name":             "Acme HVAC",
		"industry_sector":          "Home Services",
		"industry_sub_sector":      "HVAC",
		"annual_revenue":           4_000_000,
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

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "valuation", "POSTGRES_PASSWORD": "valuationpass", "POSTGRES_DB": "valuationdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://valuation:valuationpass@%s:%s/valuationdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
