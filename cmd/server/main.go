package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	payoutapp "github.com/payout/backend/internal/application/payout"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/payout/backend/internal/infrastructure/auth"
	"github.com/payout/backend/internal/infrastructure/cache"
	"github.com/payout/backend/internal/infrastructure/config"
	"github.com/payout/backend/internal/infrastructure/event"
	"github.com/payout/backend/internal/infrastructure/logger"
	"github.com/payout/backend/internal/infrastructure/persistence"
	"github.com/payout/backend/internal/infrastructure/scheduler"
	"github.com/payout/backend/internal/infrastructure/telemetry"
	"github.com/payout/backend/internal/infrastructure/wallet"
	"github.com/payout/backend/internal/interfaces/http/handler"
	"github.com/payout/backend/internal/interfaces/http/middleware"
	"github.com/payout/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const (
	version            = "1.0.0"
	overdueSweepJob    = "overdue_sweep"
	decisionRateLimit  = 30
	decisionRateWindow = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	tel := cfg.Telemetry

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		SamplingRatio:     tel.SamplingRatio,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tel.Enabled && tel.MetricsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ExportInterval:    tel.MetricsInterval,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tel.Enabled && tel.LogsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ServiceName:       tel.ServiceName,
		Insecure:          tel.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	if loggerProvider.IsEnabled() {
		log = telemetry.BridgeLogger(log, telemetry.NewZapOTELCore(tel.ServiceName, loggerProvider, logger.ParseLevel(tel.LogsLevel)))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           tel.ProfilingEnabled,
		ServerAddress:     tel.PyroscopeAddress,
		ApplicationName:   tel.ServiceName,
		BasicAuthUser:     tel.PyroscopeUser,
		BasicAuthPassword: tel.PyroscopePassword,
		ProfileTypes:      tel.ProfileTypes,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		if profiler.IsEnabled() && tracerProvider.IsEnabled() {
			tracerProvider.EnableSpanProfiles()
		}
	}

	log.Info("Starting payout engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("wallet_mode", cfg.Wallet.Mode),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), tel.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if tel.Enabled && tel.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      tel.DBLogFullSQL,
			SlowQueryThresh: tel.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Locks and token revocation share Redis when it is reachable
	lockFactory := cache.NewLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	occurrenceLock, err := lockFactory.CreateLock(ctx)
	if err != nil {
		log.Fatal("Failed to create occurrence lock", zap.Error(err))
	}
	defer func() {
		if err := occurrenceLock.Close(); err != nil {
			log.Error("Error closing occurrence lock", zap.Error(err))
		}
	}()
	var tokenBlacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if client := lockFactory.RedisClient(); client != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(client)
	}

	// Repositories and wallet
	scope := persistence.NewGormTransactionScope(db.DB)
	if cfg.Wallet.Mode == config.WalletModeHTTP {
		walletClient, err := wallet.NewHTTPClient(wallet.Config{
			BaseURL:    cfg.Wallet.BaseURL,
			APIKey:     cfg.Wallet.APIKey,
			Timeout:    cfg.Wallet.Timeout,
			MaxRetries: cfg.Wallet.MaxRetries,
		}, wallet.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create wallet client", zap.Error(err))
		}
		scope = scope.WithExternalWallet(walletClient)
	}

	dueService := payoutapp.NewDueService(
		persistence.NewGormInvestmentDueRepository(db.DB),
		persistence.NewGormPayoutRecordRepository(db.DB),
		persistence.NewGormPayoutRejectionRepository(db.DB),
		persistence.NewGormInvestmentCatalog(db.DB),
		scope,
		occurrenceLock,
		payoutapp.ServiceConfig{
			Policy:          payout.ClassifierPolicy{GracePeriod: cfg.Payout.GracePeriod},
			LockTTL:         cfg.Payout.LockTTL,
			DefaultPageSize: cfg.Payout.DefaultPageSize,
			MaxPageSize:     cfg.Payout.MaxPageSize,
			StatsBatchSize:  cfg.Payout.StatsBatchSize,
			WalletAdapter:   cfg.Wallet.Mode,
		},
	)
	dueService.SetLogger(log)
	if meterProvider.IsEnabled() {
		payoutMetrics, err := telemetry.NewPayoutMetrics(meterProvider.Meter(tel.ServiceName))
		if err != nil {
			log.Warn("Payout metrics disabled", zap.Error(err))
		} else {
			dueService.SetMetrics(payoutMetrics)
		}
	}

	// Event bus
	serializer := event.NewEventSerializer()
	event.RegisterPayoutEvents(serializer)
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := payoutapp.NewAuditLogHandler(log, serializer)
	completionHandler := payoutapp.NewCompletionHandler(log)
	eventBus.Subscribe(auditHandler)
	eventBus.Subscribe(completionHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer shutdown(log, "event bus", eventBus.Stop)
	dueService.SetEventPublisher(eventBus)
	log.Info("Event handlers registered",
		zap.Strings("audit_events", auditHandler.EventTypes()),
		zap.Strings("completion_events", completionHandler.EventTypes()),
	)

	// Scheduler
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scheduler.Config{Location: cfg.Scheduler.Location()}, log)
		sweeper := payoutapp.NewOverdueSweeper(dueService, log)
		if err := sched.Register(overdueSweepJob, cfg.Scheduler.OverdueSweepCron, sweeper.Run); err != nil {
			log.Fatal("Failed to register overdue sweep", zap.Error(err))
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer shutdown(log, "scheduler", sched.Stop)
		log.Info("Scheduler started",
			zap.String("overdue_sweep_cron", cfg.Scheduler.OverdueSweepCron),
			zap.String("timezone", cfg.Scheduler.Location().String()),
		)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(tel.ServiceName, tracerProvider.IsEnabled()),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meterProvider.Meter(tel.ServiceName), meterProvider.IsEnabled()),
		middleware.Profiling(profiler != nil && profiler.IsEnabled(), "/health"),
		middleware.CORSWithConfig(corsConfig),
		middleware.Secure(cfg.App.IsProduction()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithLogger(log))
	r.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     auth.NewJWTService(cfg.JWT),
		TokenBlacklist: tokenBlacklist,
		SkipPaths:      []string{"/api/v1/ping"},
		Logger:         log,
	}))
	r.Register(router.PayoutRoutes(
		handler.NewPayoutHandler(dueService),
		middleware.NewRateLimiter(decisionRateLimit, decisionRateWindow),
		log,
	)).
		Register(router.AuthRoutes(handler.NewAuthHandler(tokenBlacklist, cfg.JWT.AccessTokenExpiration), log)).
		Register(router.SystemRoutes(systemHandler)).
		Register(router.NewDomainGroup("ping", "").GET("/ping", systemHandler.Ping))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// shutdown runs stop with a bounded context, logging any failure
func shutdown(log *zap.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Error("Error stopping "+name, zap.Error(err))
	}
}
