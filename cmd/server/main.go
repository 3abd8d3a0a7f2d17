package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/wardenlink/internal/featureflags"
	"github.com/aryan0dhankhar/wardenlink/internal/handler"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/storage"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/wardenlink/internal/repository"
	"github.com/aryan0dhankhar/wardenlink/internal/repository/memory"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/security/crypto"
	"github.com/aryan0dhankhar/wardenlink/internal/security/middleware"
	"github.com/aryan0dhankhar/wardenlink/internal/security/ratelimit"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
	"github.com/aryan0dhankhar/wardenlink/internal/worker"
	"github.com/aryan0dhankhar/wardenlink/pkg/config"
	"github.com/aryan0dhankhar/wardenlink/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting wardenlink server", slog.String("environment", cfg.Environment))

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdownTracing(sctx)
	}()

	checks := map[string]handler.Checker{}

	// 3. Open the store: postgres when configured, otherwise process memory
	var repos *repository.Set
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		repos = repository.NewPostgresSet(pool.GetDB(), log)
		checks["postgres"] = pool.Health
	} else {
		if cfg.IsProduction() {
			return errors.New("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory store")
		repos = repository.NewMemorySet(memory.New())
	}

	// 4. Presence: shared through redis when configured
	hub := presence.NewHub(log)
	hub.OnDrop(metrics.ObserveDroppedEvent)
	var counter presence.Counter = presence.NewMemoryCounter()
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Ping

		counter = presence.NewRedisCounter(redisClient)
		breaker := circuitbreaker.New(5, 2, 30*time.Second)
		breaker.OnStateChange(func(from, to circuitbreaker.State) {
			log.Warn("event bus breaker changed state", slog.String("from", from.String()), slog.String("to", to.String()))
		})
		bus := presence.NewRedisBus(redisClient, presence.DefaultBusChannel, hub.Deliver, breaker, log)
		hub.UseBus(bus)
		go func() {
			if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event bus stopped", slog.String("error", err.Error()))
			}
		}()
	}
	tracker := presence.NewTracker(counter, hub, log)

	// 5. Security components
	cipher, err := crypto.NewMessageCipher(cfg.MessageEncryptionKey)
	if err != nil {
		return fmt.Errorf("MESSAGE_ENCRYPTION_KEY: %w", err)
	}
	hasher := auth.NewHasher(auth.DefaultCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, "wardenlink", cfg.JWTExpiresIn)
	authz := security.NewAuthorizer(log)
	auditLog := audit.NewLogger(repos.Audit, log)

	presigner, err := storage.New(ctx, cfg.Storage, log)
	if errors.Is(err, storage.ErrDisabled) {
		log.Warn("object storage disabled, uploads will be refused")
		presigner = nil
	} else if err != nil {
		return fmt.Errorf("failed to configure object storage: %w", err)
	}

	// 6. Services
	roles := service.NewRoleResolver(repos.Roles, 5*time.Minute)
	if err := service.NewSeeder(repos.Roles, repos.Users, hasher, log).Run(ctx, cfg.SeedAdmin); err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	authService := service.NewAuthService(repos.Users, hasher, tokens, auditLog, log)
	inviteService := service.NewInviteService(repos.Invites, repos.Users, roles, hasher, auditLog, cfg.ClientURL, log)
	userService := service.NewUserService(repos.Users, roles, hasher, authz, auditLog, featureflags.FromEnv(), log)
	groupService := service.NewGroupService(repos.Groups, repos.Users, log)
	messageService := service.NewMessageService(repos.Messages, repos.Users, repos.Groups, cipher, hub, authz, log)
	pollService := service.NewPollService(repos.Polls, auditLog, log)
	welfareService := service.NewWelfareService(repos.Welfare, auditLog, log)
	reportService := service.NewReportService(repos.Reports, auditLog, log)
	uploadService := service.NewUploadService(presigner, cfg.Storage.URLTTL, log)
	notificationService := service.NewNotificationService(repos.Notifications, hub, log)
	postService := service.NewPostService(repos.Posts, repos.Users, notificationService, authz, auditLog, log)
	commentService := service.NewCommentService(repos.Comments, repos.Posts, notificationService, log)
	pageService := service.NewPageService(repos.Pages, log)

	// 7. Handlers and routes
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	loginLimiter := ratelimit.PerWindow(cfg.LoginLimitPerMinute, time.Minute)
	defer loginLimiter.Stop()

	mux := http.NewServeMux()
	handler.Register(mux, handler.Handlers{
		Auth:     handler.NewAuthHandler(authService, log),
		Invites:  handler.NewInviteHandler(inviteService, log),
		Users:    handler.NewUserHandler(userService, log),
		Messages: handler.NewMessageHandler(messageService, log),
		Groups:   handler.NewGroupHandler(groupService, log),
		Welfare:  handler.NewWelfareHandler(welfareService, pollService, log),
		Reports:  handler.NewReportHandler(reportService, log),
		Uploads:  handler.NewUploadHandler(uploadService, log),
		Audit:    handler.NewAuditHandler(auditLog, log),
		Presence: handler.NewPresenceHandler(tracker, log),
		Health:   handler.NewHealthHandler(checks, log),
		Gateway:  handler.NewGatewayHandler(authService, groupService, hub, tracker, cfg.CORSAllowedOrigins, log),

		Posts:         handler.NewPostHandler(postService, log),
		Comments:      handler.NewCommentHandler(commentService, log),
		Pages:         handler.NewPageHandler(pageService, log),
		Notifications: handler.NewNotificationHandler(notificationService, log),
	},
		middleware.NewGuard(authService, authz, auditLog, log),
		middleware.RateLimit(loginLimiter, proxies, log),
	)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chain middleware: recover -> request ID -> CORS -> path checks -> rate limit -> JSON body checks
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rateLimiter.Stop()
	root := otelhttp.NewHandler(middleware.Chain(
		metrics.HTTPMetricsMiddleware(mux),
		middleware.Recover(log),
		middleware.RequestID(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizePath(log),
		middleware.RateLimit(rateLimiter, proxies, log),
		middleware.ValidateJSONContentType(log),
	), "wardenlink")

	// 8. Background poll sweeper
	sweeper := worker.NewSweeper(pollService, tracker, log, cfg.PollSweepInterval)
	go sweeper.Start(ctx)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// Websocket sessions outlive any write timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.Storage.Provider),
		slog.Bool("redis", cfg.RedisURL != ""),
		slog.Bool("postgres", cfg.DatabaseURL != ""),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop sweeper and bus
	log.Info("server stopped")
	return nil
}
