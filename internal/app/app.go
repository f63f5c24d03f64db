// Package app wires configuration, provider clients, rate limiting and
// routes into a runnable service.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"

	"onboarding-gateway/internal/aml"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/config"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/handlers"
	"onboarding-gateway/internal/payments"
	"onboarding-gateway/internal/ratelimit"
	"onboarding-gateway/internal/server"
)

// App holds all the application dependencies
type App struct {
	cfg      *config.Config
	logger   logging.Logger
	limiter  *ratelimit.Limiter
	fields   *fieldmap.Cache
	handlers *handlers.Handlers
	server   *server.Server
	cron     *cron.Cron
	redis    *redis.Client
}

// New builds the application from configuration. Providers without
// credentials are left nil; their routes answer 503.
func New(cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	store, err := a.buildStore()
	if err != nil {
		return nil, err
	}
	a.limiter = ratelimit.NewLimiter(store)

	var crmClient handlers.CRMClient
	if cfg.CRMConfigured() {
		c := crm.NewClient(crm.Config{
			APIKey:     cfg.CRMAPIKey,
			LocationID: cfg.CRMLocationID,
			BaseURL:    cfg.CRMBaseURL,
			APIVersion: cfg.CRMAPIVersion,
		}, logger)
		crmClient = c
		a.fields = fieldmap.NewCache(c, cfg.FieldCacheTTL, logger)
	} else {
		logger.Warn("crm credentials absent, crm routes disabled")
	}

	var amlClient handlers.AMLClient
	if cfg.AMLConfigured() {
		amlClient = aml.NewClient(aml.Config{
			APIKey:  cfg.AMLAPIKey,
			BaseURL: cfg.AMLBaseURL,
		}, logger)
	} else {
		logger.Info("aml integration disabled")
	}

	var paymentsClient handlers.PaymentsClient
	if cfg.PaymentsConfigured() {
		paymentsClient = payments.NewClient(payments.Config{
			SecretKey:     cfg.PaymentsSecretKey,
			BaseURL:       cfg.PaymentsBaseURL,
			WebhookSecret: cfg.PaymentsWebhookSecret,
		}, logger)
	} else {
		logger.Warn("payment credentials absent, payment routes disabled")
	}

	a.handlers = handlers.New(cfg, logger, crmClient, a.fields, amlClient, paymentsClient)
	a.server = server.New(a.Routes(), cfg.Port)

	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@every 5m", a.sweepLimiter); err != nil {
		return nil, fmt.Errorf("schedule limiter sweep: %w", err)
	}

	return a, nil
}

func (a *App) buildStore() (ratelimit.Store, error) {
	if a.cfg.RateLimitStore != "redis" {
		return ratelimit.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddress,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.redis = client
	return ratelimit.NewRedisStore(client, "ratelimit"), nil
}

func (a *App) sweepLimiter() {
	swept := a.limiter.Sweep(context.Background())
	if swept > 0 {
		a.logger.Debug("swept expired rate limit windows",
			logging.Field{Key: "count", Value: swept})
	}
}

// Start begins serving requests and starts background jobs
func (a *App) Start() {
	a.cron.Start()
	a.server.Start()
	a.logger.Info("listening", logging.Field{Key: "port", Value: a.cfg.Port})
}

// Shutdown stops background jobs and drains in-flight requests
func (a *App) Shutdown(ctx context.Context) error {
	cronCtx := a.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	err := a.server.Shutdown(ctx)
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
