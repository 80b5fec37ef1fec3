package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yukikurage/questboard-api/internal/config"
	"github.com/yukikurage/questboard-api/internal/constants"
	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/handlers"
	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/middleware"
	"github.com/yukikurage/questboard-api/internal/notifier"
	"github.com/yukikurage/questboard-api/internal/observability"
	"github.com/yukikurage/questboard-api/internal/realtime"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/services"
	"github.com/yukikurage/questboard-api/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLog.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownTracing := observability.InitTracing(ctx, cfg, appLog)

	// Connect to database
	if err := database.Connect(cfg, appLog); err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}

	// Run migrations
	if err := database.Migrate(appLog); err != nil {
		appLog.Fatal("Failed to run migrations", "error", err)
	}
	db := database.GetDB()

	feed, err := newFeed(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to start change feed", "error", err, "driver", cfg.FeedDriver)
	}
	defer feed.Close()

	store, err := newStore(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to init object storage", "error", err, "driver", cfg.StorageDriver)
	}

	provider, err := newProvider(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to init identity provider", "error", err, "mode", cfg.IdentityMode)
	}

	// Repositories
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Reward hooks
	hooks := []services.RewardHook{services.NewLogRewardHook(appLog)}
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			appLog.Fatal("Failed to create discord session", "error", err)
		}
		hooks = append(hooks, notifier.NewDiscordRewardAnnouncer(appLog, session, cfg.DiscordRewardsChannelID, userRepo))
	}

	// Services
	progressService := services.NewProgressService(appLog, progressRepo, levelRepo, feed, services.XPAwards{
		AssignmentPosted: cfg.XPAssignmentPosted,
		CommentPosted:    cfg.XPCommentPosted,
		UpvoteReceived:   cfg.XPUpvoteReceived,
	}, hooks...)
	assignmentService := services.NewAssignmentService(appLog, assignmentRepo, companyRepo, store, progressService, cfg.MaxUploadSize)

	// Initialize Gin router
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.OtelServiceName))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // username (empty for default user)
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		appLog.Fatal("Failed to create Redis store", "error", err)
	}
	isProduction := cfg.GinMode == "release"
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	handlers.Register(r, handlers.Services{
		Provider:      provider,
		MembershipTTL: cfg.MembershipCacheTTL,
		Sync:          services.NewSyncService(appLog, companyRepo, userRepo, progressRepo, provider),
		Assignments:   assignmentService,
		Votes:         services.NewVoteService(appLog, assignmentRepo, progressService),
		Comments:      services.NewCommentService(appLog, commentRepo, assignmentService, progressService),
		Levels:        services.NewLevelService(appLog, levelRepo, progressService),
		Progress:      progressService,
		Bridge:        services.NewLevelUpBridge(appLog, feed, levelRepo),
	}, appLog)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		appLog.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown failed", "error", err)
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		appLog.Warn("Tracing shutdown failed", "error", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	appLog.Info("Server stopped")
}

func newFeed(ctx context.Context, cfg *config.Config, log *logger.Logger) (realtime.Feed, error) {
	switch cfg.FeedDriver {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr()})
		return realtime.NewRedisFeed(ctx, rdb, cfg.FeedChannel, log)
	case "postgres":
		pool, err := pgxpool.New(ctx, database.PostgresDSN(cfg))
		if err != nil {
			return nil, err
		}
		return realtime.NewPostgresFeed(ctx, pool, cfg.FeedChannel, log)
	default:
		return realtime.NewMemoryFeed(), nil
	}
}

func newStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Store, error) {
	if cfg.StorageDriver == "gcs" {
		return storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:      cfg.GCSBucketName,
			CDNDomain:   cfg.GCSCDNDomain,
			Credentials: cfg.GCSCredentials,
		}, log)
	}
	log.Warn("Using in-memory object storage; uploads are lost on restart")
	return storage.NewMemoryStore(""), nil
}

func newProvider(cfg *config.Config, log *logger.Logger) (identity.Provider, error) {
	if cfg.IdentityMode == "dev" {
		log.Warn("Dev identity mode: X-User-ID is trusted without verification", "company_id", cfg.DevCompanyID)
		return identity.NewDevProvider(cfg.DevCompanyID), nil
	}
	return identity.NewWhopProvider(identity.WhopConfig{
		APIBaseURL:     cfg.WhopAPIBaseURL,
		APIKey:         cfg.WhopAPIKey,
		AppID:          cfg.WhopAppID,
		TokenPublicKey: cfg.WhopTokenPublicKey,
	}, log)
}
