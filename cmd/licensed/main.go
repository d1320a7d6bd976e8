package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/licensekit/pkg/config"
	"github.com/dmitrymomot/licensekit/pkg/email"
	"github.com/dmitrymomot/licensekit/pkg/httpapi"
	"github.com/dmitrymomot/licensekit/pkg/httpserver"
	"github.com/dmitrymomot/licensekit/pkg/licensing"
	"github.com/dmitrymomot/licensekit/pkg/logger"
	"github.com/dmitrymomot/licensekit/pkg/notify"
	"github.com/dmitrymomot/licensekit/pkg/pg"
	"github.com/dmitrymomot/licensekit/pkg/plans"
	redisconn "github.com/dmitrymomot/licensekit/pkg/redis"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"`

	PlanCatalogPath string `env:"PLAN_CATALOG_PATH" envDefault:"plans.yaml"`

	TrialDays      int    `env:"TRIAL_DAYS" envDefault:"14"`
	TrialSiteLimit int64  `env:"TRIAL_SITE_LIMIT" envDefault:"1"`
	TrialKeyPrefix string `env:"TRIAL_KEY_PREFIX" envDefault:"TRIAL"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"15m"`

	// DevEmailDir switches the mailer to on-disk delivery for local runs.
	DevEmailDir string `env:"DEV_EMAIL_DIR"`
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Environment, "licensed"),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), appCfg, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, log *slog.Logger) error {
	var (
		pgCfg     pg.Config
		redisCfg  redisconn.Config
		httpCfg   httpserver.Config
		apiCfg    httpapi.Config
		paddleCfg licensing.PaddleConfig
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&apiCfg)
	config.MustLoad(&paddleCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	catalog, err := (plans.FileSource{Path: appCfg.PlanCatalogPath}).Load(ctx)
	if err != nil {
		return err
	}

	provider, err := licensing.NewPaddleProvider(paddleCfg)
	if err != nil {
		return err
	}

	notifier, err := buildNotifier(appCfg, log)
	if err != nil {
		return err
	}

	svc, err := licensing.NewService(
		licensing.NewPostgresStore(pool),
		catalog,
		licensing.WithLogger(log),
		licensing.WithNotifier(notifier),
		licensing.WithThrottle(licensing.NewRedisThrottle(redisClient, appCfg.HeartbeatInterval)),
		licensing.WithTrialPolicy(appCfg.TrialDays, appCfg.TrialSiteLimit, appCfg.TrialKeyPrefix),
	)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(svc, provider, apiCfg, log,
		httpapi.WithHealthHandler(httpserver.HealthCheckHandler(ctx, log,
			pg.Healthcheck(pool),
			redisconn.Healthcheck(redisClient),
		)),
	)

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("license service started", slog.String("addr", httpCfg.Addr))
		}),
	)
	return srv.Run(ctx, router)
}

// buildNotifier assembles the out-of-band issuance channels: email always
// (Postmark in production, on-disk in development) and a forwarding webhook
// when one is configured.
func buildNotifier(appCfg appConfig, log *slog.Logger) (notify.Forwarder, error) {
	var forwarders []notify.Forwarder

	var emailCfg email.Config
	config.MustLoad(&emailCfg)

	var sender email.EmailSender
	if appCfg.DevEmailDir != "" {
		sender = email.NewDevSender(appCfg.DevEmailDir)
	} else {
		var err error
		sender, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return nil, err
		}
	}
	forwarders = append(forwarders, notify.NewEmailForwarder(sender))

	var webhookCfg notify.WebhookConfig
	config.MustLoad(&webhookCfg)
	if webhookCfg.EndpointURL != "" {
		fw, err := notify.NewWebhookForwarder(webhookCfg)
		if err != nil {
			return nil, err
		}
		forwarders = append(forwarders, fw)
	}

	return notify.NewMulti(forwarders, notify.WithLogger(log)), nil
}
