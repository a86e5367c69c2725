package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paisa-pay/paisa_pay/internal/audit"
	"github.com/paisa-pay/paisa_pay/internal/auth"
	"github.com/paisa-pay/paisa_pay/internal/config"
	"github.com/paisa-pay/paisa_pay/internal/identity"
	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/middleware"
	"github.com/paisa-pay/paisa_pay/internal/payments"
	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Authorizer overrides the default payment gateway stub when set.
	Authorizer payments.Authorizer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Storage backends fall back to memory in dev.
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemoryStore()
	}
	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	walletSvc := wallet.NewService(store, d.Cache, d.Cfg.WalletCacheTTL, d.Logger)
	observer := audit.NewFanout(d.Logger, audit.NewLoggerObserver(d.Logger), walletSvc)
	engine := ledger.NewEngine(store, ledger.NewLockTable(), observer, d.Logger)

	identitySvc := identity.NewService(identityRepo, walletSvc)
	authSvc := auth.NewService(d.Cfg, identitySvc)
	paymentSvc := payments.NewService(engine, walletSvc, d.Authorizer, d.Logger)

	identityHandler := identity.NewHandler(identitySvc)
	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	paymentHandler := payments.NewHandler(paymentSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Post("/register", identityHandler.Register)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRatePerMin)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(authSvc))
	protected.Post("/logout", authHandler.Logout)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterPaymentRoutes(protected, paymentHandler)

	return nil
}
