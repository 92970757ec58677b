package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"payfast_gateway_echo/internal/config"
	"payfast_gateway_echo/internal/handlers"
	"payfast_gateway_echo/internal/logging"
	"payfast_gateway_echo/internal/metrics"
	appMiddleware "payfast_gateway_echo/internal/middleware"
	"payfast_gateway_echo/internal/payfast"
	"payfast_gateway_echo/internal/services"
)

// CallbackPath is where the gateway posts ITNs (notify_url).
const CallbackPath = "/payment/callback"

// legacyCallbackPath is the notify_url used by earlier installs.
const legacyCallbackPath = "/Plugins/PaymentPayFast/PaymentResult"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize Database
	db, err := services.InitDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := services.AutoMigrate(db, logger); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}

	healthChecks := map[string]handlers.Pinger{
		"database": handlers.PingerFunc(sqlDB.PingContext),
	}

	// Redis is optional; it adds a cross-instance lock around mark-paid.
	var locker payfast.Locker = payfast.NopLocker{}
	if cfg.Redis.URL != "" {
		redisClient, err := services.NewRedisClient(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = services.NewRedisLocker(redisClient, logger)
		healthChecks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		logger.Warn("REDIS_URL not set, mark-paid relies on the database compare-and-set only")
	}

	defaults, err := services.DefaultSettings(cfg.PayFast)
	if err != nil {
		logger.Fatal("invalid payfast settings", zap.Error(err))
	}

	itnMetrics := metrics.NewITN()
	orderStore := services.NewOrderStore(db)
	settingsStore := services.NewSettingsStore(db, defaults)
	historyStore := services.NewCallbackHistoryStore(db)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = settingsStore.Seed(seedCtx)
	cancelSeed()
	if err != nil {
		logger.Fatal("failed to seed payfast settings", zap.Error(err))
	}

	validator := payfast.NewValidator(
		payfast.NewOrderResolver(orderStore, logger),
		payfast.NewHostAllowlist(net.DefaultResolver, cfg.PayFast.ValidHosts, cfg.PayFast.GatewayTimeout, logger),
		payfast.NewHTTPConfirmer(&http.Client{}, cfg.PayFast.GatewayTimeout),
		itnMetrics,
		logger,
	)
	processor := payfast.NewProcessor(
		settingsStore,
		validator,
		payfast.NewApplier(orderStore, locker, cfg.PayFast.LockTTL, logger),
		historyStore,
		itnMetrics,
		logger,
	)

	e := newServer(cfg, logger)

	itnHandler := handlers.NewITNHandler(processor, logger)
	orderHandler := handlers.NewOrderHandler(orderStore, historyStore, settingsStore)
	healthHandler := handlers.NewHealthHandler(healthChecks)

	// Gateway routes
	e.POST(CallbackPath, itnHandler.HandleCallback)
	e.POST(legacyCallbackPath, itnHandler.HandleCallback)

	// Platform routes
	e.GET("/payment/fee", orderHandler.AdditionalFee)
	e.GET("/orders/:id/payment-status", orderHandler.PaymentStatus, appMiddleware.RequireAPIKey(cfg.HTTP.APIKey))

	e.GET("/healthz", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(itnMetrics.Handler()))

	// Start server
	go func() {
		logger.Info("server starting", zap.String("port", cfg.App.Port))
		if err := e.Start(":" + cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func newServer(cfg *config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.NewErrorHandler(logger)
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout

	// Behind a proxy the gateway's address is only in X-Forwarded-For,
	// and only trusted when the proxy is in a configured range.
	if len(cfg.HTTP.TrustedProxies) > 0 {
		var opts []echo.TrustOption
		for _, cidr := range cfg.HTTP.TrustedProxies {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				logger.Fatal("invalid trusted proxy range", zap.String("cidr", cidr), zap.Error(err))
			}
			opts = append(opts, echo.TrustIPRange(ipNet))
		}
		e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(middleware.RequestID())
	e.Use(appMiddleware.RequestLogger(logger))
	e.Use(middleware.Recover())

	return e
}
