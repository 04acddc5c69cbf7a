package routes

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/accountgate/internal/account"
	"github.com/congo-pay/accountgate/internal/auth"
	"github.com/congo-pay/accountgate/internal/config"
	"github.com/congo-pay/accountgate/internal/logging"
	"github.com/congo-pay/accountgate/internal/metrics"
	"github.com/congo-pay/accountgate/internal/middleware"
	"github.com/congo-pay/accountgate/internal/notification"
)

const (
	deliveryRetries   = 2
	deliveryBaseDelay = 200 * time.Millisecond
)

// Deps aggregates shared dependencies required to wire routes.
// Registry, Notifier and Codes are optional overrides.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Notifier notification.Notifier
	Codes    account.CodeGenerator
	// AccessLog enables the plain text access log line.
	AccessLog bool
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.NewMetrics(reg)

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	accounts, err := buildAccountService(d, m)
	if err != nil {
		return err
	}
	issuer, err := buildIssuer(d)
	if err != nil {
		return err
	}

	accountHandler := account.NewHandler(accounts, m)
	authHandler := auth.NewHandler(accounts, issuer, m)
	h := handlers{
		accounts:    accountHandler,
		auth:        authHandler,
		idempotency: middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
		loginLimit:  middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit),
		resendLimit: middleware.ResendRateLimit(d.Cache, d.Cfg.ResendRateLimit),
		jwt:         middleware.JWTAuth(issuer),
	}

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	for _, r := range []fiber.Router{app, api} {
		RegisterAuthRoutes(r, h)
		RegisterUserRoutes(r, h)
	}
	return nil
}

func buildAccountService(d Deps, m *metrics.Metrics) (*account.Service, error) {
	var repo account.Repository
	if d.DB != nil {
		repo = account.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("DATABASE_URL not set; using in-memory account store")
		repo = account.NewMemoryRepository()
	}

	hasher, err := account.NewSecretHasher(d.Cfg.PasswordHasher, d.Cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	var codes account.CodeGenerator = account.NewRandomCodeGenerator()
	if d.Codes != nil {
		codes = d.Codes
	}

	transport, err := buildNotifier(d)
	if err != nil {
		return nil, err
	}
	var delivery notification.Notifier = notification.NewRetryNotifier(transport, deliveryRetries, deliveryBaseDelay)
	delivery = metrics.NewCountingNotifier(delivery, m)

	return account.NewService(repo, hasher, codes, notification.NewVerificationMailer(delivery), account.WithLogger(d.Logger)), nil
}

func buildNotifier(d Deps) (notification.Notifier, error) {
	if d.Notifier != nil {
		return d.Notifier, nil
	}
	smtp := d.Cfg.SMTP
	if smtp.Host == "" {
		return notification.NewLoggerNotifier(d.Logger), nil
	}
	return notification.NewSMTPNotifier(notification.SMTPConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
	})
}

func buildIssuer(d Deps) (*auth.Issuer, error) {
	secret := []byte(d.Cfg.JWTSecret)
	if len(secret) == 0 {
		// Dev only: tokens do not survive a restart.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		d.Logger.Warn("JWT_SECRET not set; using an ephemeral signing key")
	}
	return auth.NewIssuer(secret, d.Cfg.JWTExpiration, d.Cfg.JWTIssuer), nil
}
