package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valuation-service/internal/app"
	"valuation-service/internal/config"
	"valuation-service/internal/infra/mail"
	"valuation-service/internal/infra/memory"
	"valuation-service/internal/infra/postgres"
	pgmigrations "valuation-service/internal/infra/postgres/migrations"
	redisstore "valuation-service/internal/infra/redis"
	"valuation-service/internal/infra/salesforce"
	"valuation-service/internal/metrics"
	"valuation-service/internal/questionnaire"
	transport "valuation-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(cfg *config.Config, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the valuation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *cfg, *port)
		},
	}
}

type stores struct {
	subs   app.SubmissionRepository
	tokens app.TokenStore
	banks  app.QuestionnaireRepository
	close  func()
}

// openStores picks Postgres and Redis when configured and falls back to
// in-memory implementations otherwise.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	var closers []func()
	st := stores{subs: memory.NewSubmissionRepository()}
	var loader memory.BankLoader = memory.NewStaticBankLoader(questionnaire.Default())

	if cfg.Postgres.URL != "" {
		if err := pgmigrations.Apply(ctx, cfg.Postgres.URL); err != nil {
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return stores{}, eris.Wrap(err, "connect postgres")
		}
		closers = append(closers, pool.Close)
		bankLoader := postgres.NewBankLoader(pool)
		if err := seedBank(ctx, bankLoader); err != nil {
			pool.Close()
			return stores{}, err
		}
		loader = bankLoader
		st.subs = postgres.NewSubmissionRepository(pool)
	}

	bankTTL := config.TTLDuration(cfg.Questionnaire.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			for _, c := range closers {
				c()
			}
			return stores{}, eris.Wrap(err, "connect redis")
		}
		closers = append(closers, func() { _ = client.Close() })
		st.tokens = redisstore.NewTokenStore(client, redisstore.DefaultRetention)
		st.banks = redisstore.NewQuestionnaireRepository(client, loader, bankTTL)
	} else {
		st.tokens = memory.NewTokenStore()
		st.banks = memory.NewQuestionnaireRepository(loader, bankTTL)
	}

	st.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return st, nil
}

func newMailer(cfg config.MailConfig) (*mail.Mailer, error) {
	var sender mail.Sender
	switch cfg.Provider {
	case "", "log":
		sender = mail.LogSender{}
	case "http":
		if cfg.APIKey == "" {
			return nil, eris.New("mail.api_key is required for the http provider")
		}
		sender = mail.NewHTTPSender(cfg.BaseURL, cfg.APIKey, &http.Client{Timeout: 10 * time.Second})
	default:
		return nil, eris.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return mail.NewMailer(sender, cfg.From), nil
}

func runServer(ctx context.Context, cfg config.Config, portFlag string) error {
	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mailer, err := newMailer(cfg.Mail)
	if err != nil {
		return err
	}
	opts := []app.Option{
		app.WithMailer(mailer),
		app.WithMetrics(metrics.MustNewMetrics(reg)),
	}
	if cfg.Salesforce.ClientID != "" {
		client, err := salesforce.Connect(salesforce.Credentials{
			LoginURL: cfg.Salesforce.LoginURL,
			Username: cfg.Salesforce.Username,
			ClientID: cfg.Salesforce.ClientID,
			KeyPath:  cfg.Salesforce.KeyPath,
		}, cfg.Salesforce.RateLimit)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithCRM(salesforce.NewLeadSync(client)))
		zap.L().Info("salesforce lead sync enabled")
	}

	service := app.NewAssessmentService(st.subs, st.tokens, st.banks, app.Config{
		QuestionnaireID:        cfg.Questionnaire.ID,
		TokenTTL:               config.TTLDuration(cfg.Continuation.TTL, 72*time.Hour),
		ContinuationURL:        cfg.Continuation.BaseURL,
		ContinuationsPerMinute: cfg.Continuation.RatePerMinute,
	}, opts...)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(service, transport.RouterOptions{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		zap.L().Info("starting valuation service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		zap.L().Info("shutting down server")
	case <-ctx.Done():
		zap.L().Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := service.Close(shutdownCtx); err != nil {
		zap.L().Warn("crm syncs still running at shutdown", zap.Error(err))
	}
	return nil
}
