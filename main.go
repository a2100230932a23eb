package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/handlers"
	"github.com/campusnet/campusnet/backend/go-services/internal/auth"
	"github.com/campusnet/campusnet/backend/go-services/internal/candidatures"
	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/database"
	"github.com/campusnet/campusnet/backend/go-services/internal/media"
	"github.com/campusnet/campusnet/backend/go-services/internal/news"
	"github.com/campusnet/campusnet/backend/go-services/internal/notifications"
	"github.com/campusnet/campusnet/backend/go-services/internal/programs"
	"github.com/campusnet/campusnet/backend/go-services/internal/publications"
	"github.com/campusnet/campusnet/backend/go-services/internal/search"
	"github.com/campusnet/campusnet/backend/go-services/internal/sessions"
	"github.com/campusnet/campusnet/backend/go-services/internal/storage"
	"github.com/campusnet/campusnet/backend/go-services/internal/tokens"
	"github.com/campusnet/campusnet/backend/go-services/internal/users"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL is read again from config below; this covers config loading itself
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: env=%s mongo=%v redis=%v storage=%s search=%v",
		cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Uploads.Driver, cfg.Search.Host != "")

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, func(attempt int, err error) {
		logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
	})
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to create indexes: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v; token revocation and live notifications are disabled", cfg.Redis.Addr(), err)
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
			logger.Infof("connected to Redis: %s", cfg.Redis.Addr())
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize %s storage: %v", cfg.Uploads.Driver, err)
	}
	limits := storage.LimitsFromConfig(cfg.Uploads)

	var tx database.Transactor = database.CompensatingTransactor{}
	if cfg.MongoDB.Transactions {
		tx = database.NewMongoTransactor(client)
		logger.Infof("apply runs in MongoDB transactions")
	}

	index := search.New(cfg.Search)
	issuer := tokens.NewIssuer(cfg.JWT)
	blacklist := sessions.NewBlacklist(rdb)
	userRepo := users.NewMongoUserRepository(db.Collection(database.UsersCollection))
	userSvc := users.NewService(userRepo)
	notifySvc := notifications.NewService(notifications.NewMongoRepository(db.Collection(database.NotificationsCollection)), rdb)
	candRepo := candidatures.NewMongoRepository(db.Collection(database.CandidaturesCollection))

	services := handlers.Services{
		Gate:         middleware.NewGate(issuer, userRepo, blacklist),
		Auth:         auth.NewService(userRepo, issuer, blacklist),
		Users:        userSvc,
		Media:        media.NewService(store, limits, media.NewMongoRepository(db.Collection(database.MediaCollection)), userRepo, userSvc),
		Candidatures: candidatures.NewService(candRepo, notifySvc),
		Programs: programs.NewService(
			programs.NewMongoRepository(db.Collection(database.ProgramsCollection)),
			candRepo, notifySvc, tx, index, store, limits),
		Notifications:  notifySvc,
		Publications:   publications.NewService(publications.NewMongoRepository(db.Collection(database.PublicationsCollection)), store, limits),
		News:           news.NewService(news.NewMongoRepository(db.Collection(database.NewsCollection)), store, limits),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	var limiter []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		// per client IP; the gate runs later, so limits here are not per user
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limiter = append(limiter, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limiter = append(limiter, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		logger.Infof("rate limiter enabled: rps=%.1f burst=%d redis=%v", cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.UseRedis && rdb != nil)
	}
	handlers.Mount(r, services, limiter...)

	if local, ok := store.(*storage.LocalStore); ok {
		r.Static("/uploads", local.Dir())
		r.Static("/media/uploads", local.Dir())
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(client, rdb, store, index))

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// no WriteTimeout: it would cut notification websockets
	}
	go func() {
		logger.Infof("campusnet API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readiness returns 200 only when the database and every configured dependency respond.
func readiness(client *mongo.Client, rdb *redis.Client, store storage.Store, index search.ProgramIndex) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := map[string]bool{}

		deps["mongo"] = client.Ping(ctx, nil) == nil
		ready = ready && deps["mongo"]

		if rdb != nil {
			deps["redis"] = rdb.Ping(ctx).Err() == nil
			ready = ready && deps["redis"]
		}
		if p, ok := store.(pinger); ok {
			deps["storage"] = p.Ping(ctx) == nil
			ready = ready && deps["storage"]
		}
		// search falls back to Mongo, so it is reported but does not gate readiness
		if p, ok := index.(pinger); ok {
			deps["search"] = p.Ping(ctx) == nil
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}
