package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	accountmod "github.com/streamvault/streamvault/modules/account"
	billingmod "github.com/streamvault/streamvault/modules/billing"
	librarymod "github.com/streamvault/streamvault/modules/library"
	accountsvc "github.com/streamvault/streamvault/pkg/account"
	billingsvc "github.com/streamvault/streamvault/pkg/billing"
	"github.com/streamvault/streamvault/pkg/catalog"
	"github.com/streamvault/streamvault/pkg/config"
	"github.com/streamvault/streamvault/pkg/email"
	"github.com/streamvault/streamvault/pkg/environment"
	"github.com/streamvault/streamvault/pkg/httpserver"
	"github.com/streamvault/streamvault/pkg/jwt"
	"github.com/streamvault/streamvault/pkg/logger"
	"github.com/streamvault/streamvault/pkg/pg"
	"github.com/streamvault/streamvault/pkg/ratelimit"
	"github.com/streamvault/streamvault/pkg/redis"
	"github.com/streamvault/streamvault/pkg/requestid"
)

const serviceName = "streamvault"

type appConfig struct {
	Env             string `env:"APP_ENV" envDefault:"development"`
	JWTSigningKey   string `env:"JWT_SIGNING_KEY,required"`
	DevEmailDir     string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
}

// newBillingProvider selects the payment provider implementation. Both
// load their own credentials from the environment.
func newBillingProvider(name string) (billingsvc.Provider, error) {
	switch name {
	case "paddle":
		var cfg billingsvc.PaddleConfig
		config.MustLoad(&cfg)
		return billingsvc.NewPaddleProvider(cfg)
	case "stripe":
		var cfg billingsvc.StripeConfig
		config.MustLoad(&cfg)
		return billingsvc.NewStripeProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider %q", name)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app appConfig
	config.MustLoad(&app)

	var logCfg logger.Config
	config.MustLoad(&logCfg)

	log := logger.NewFromConfig(logCfg, serviceName,
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
		))
	logger.SetAsDefault(log)

	if err := run(ctx, app, log); err != nil {
		log.ErrorContext(ctx, "service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	// Storage.
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Auth tokens.
	tokens, err := jwt.NewFromString(app.JWTSigningKey)
	if err != nil {
		return err
	}

	// Outbound email: real Postmark in production, files on disk otherwise.
	var emailCfg email.Config
	config.MustLoad(&emailCfg)

	var mailer email.EmailSender
	if environment.Environment(app.Env) == environment.Production {
		mailer, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return err
		}
	} else {
		mailer = email.NewDevSender(app.DevEmailDir)
	}

	// Billing.
	var billingCfg billingsvc.Config
	config.MustLoad(&billingCfg)

	provider, err := newBillingProvider(app.BillingProvider)
	if err != nil {
		return err
	}
	subscriptions := billingsvc.NewPGSubscriptionStore(pool)
	billing := billingsvc.NewService(provider, subscriptions, billingCfg,
		billingsvc.WithDeduper(billingsvc.NewRedisEventDeduper(redisClient, 0)),
		billingsvc.WithActivationEmail(mailer),
		billingsvc.WithLogger(log))

	poller := billingsvc.NewActivationPoller(billing, billing,
		billingsvc.WithPollerLogger(log))

	// Accounts. Signup provisions a speculative pending subscription so the
	// activation flow always has a row to flip.
	accounts := accountsvc.NewService(accountsvc.NewPGStore(pool),
		accountsvc.WithLogger(log),
		accountsvc.WithAfterRegister(func(ctx context.Context, user *accountsvc.User) error {
			return billing.EnsurePendingSubscription(ctx, user.ID)
		}))

	// Catalog.
	var storageCfg catalog.StorageConfig
	config.MustLoad(&storageCfg)

	signer, err := catalog.NewPlaybackSigner(ctx, storageCfg)
	if err != nil {
		return err
	}
	library := catalog.NewService(catalog.NewPGVideoStore(pool), signer,
		catalog.WithLogger(log))

	// Throttle credential endpoints per client IP.
	loginLimiter, err := ratelimit.NewRedisLimiter(redisClient, "ratelimit:auth:",
		ratelimit.Config{Limit: 10, Window: time.Minute})
	if err != nil {
		return err
	}
	authLimit := ratelimit.Middleware(loginLimiter, ratelimit.ByClientIP, log)

	// HTTP surface.
	auth := jwt.Middleware(tokens)
	gate := librarymod.RequireActiveSubscription(billing, log)

	billingHandler := billingmod.NewHandler(billing, poller,
		func(ctx context.Context, userID uuid.UUID) (string, error) {
			user, err := accounts.GetUser(ctx, userID)
			if err != nil {
				return "", err
			}
			return user.Email, nil
		},
		billingmod.WithLogger(log))
	accountHandler := accountmod.NewHandler(accounts, tokens,
		accountmod.WithLogger(log))
	libraryHandler := librarymod.NewHandler(library,
		librarymod.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(environment.Environment(app.Env)))

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient)))

	r.Mount("/account", accountHandler.Router(auth, authLimit))
	r.Mount("/billing", billingHandler.Router(auth))
	r.Mount("/library", libraryHandler.Router(auth, gate))

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "starting http server",
		slog.String("addr", httpCfg.Addr),
		slog.String("env", app.Env))

	return server.Run(ctx, r)
}
