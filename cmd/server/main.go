package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coogmusic/coog-backend/internal/config"
	"github.com/coogmusic/coog-backend/internal/database"
	"github.com/coogmusic/coog-backend/internal/handler"
	"github.com/coogmusic/coog-backend/internal/logger"
	"github.com/coogmusic/coog-backend/internal/metrics"
	"github.com/coogmusic/coog-backend/internal/middleware"
	"github.com/coogmusic/coog-backend/internal/queue"
	"github.com/coogmusic/coog-backend/internal/repository"
	"github.com/coogmusic/coog-backend/internal/router"
	"github.com/coogmusic/coog-backend/internal/service"
	"github.com/coogmusic/coog-backend/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)
	metrics.Init()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBMigrate {
		mctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(mctx, db)
		cancel()
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	// Redis is optional; without it rate limiting and caching are disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var workers sync.WaitGroup

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	artists := repository.NewArtistRepo(db)
	songs := repository.NewSongRepo(db)
	follows := repository.NewFollowRepo(db)

	// ---- Follow events ----
	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher
	if qcfg.Enabled {
		events = &service.AMQPPublisher{URL: qcfg.URL, Queue: qcfg.FollowQueue}
		consumer := &queue.Consumer{URL: qcfg.URL, Queue: qcfg.FollowQueue, LogPath: qcfg.ActivityLog, Log: log}
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("follow consumer stopped", "err", err)
			}
		}()
	}

	// ---- Scheduled jobs ----
	reset := service.NewMonthlyReset(songs, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		reset.Run(ctx)
	}()

	// ---- HTTP ----
	codec := utils.NewTokenCodec(cfg.JWTSecret, cfg.AccessTTL)
	auth := middleware.NewAuthenticator(codec, users, cfg.VerifyUser, log)
	auth.Timeout = cfg.RequestTimeout

	cacheCfg := config.LoadCacheConfig()
	apiLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	loginLimiter := middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb, log)
	artistCache := middleware.NewRedisCache(cacheCfg, rdb)

	authH := handler.NewAuthHandler(users, codec, cfg.BcryptCost, log)
	followH := handler.NewFollowHandler(service.NewFollowService(follows, events, log),
		&middleware.CacheInvalidator{Cfg: cacheCfg, RDB: rdb}, log)
	catalogH := handler.NewCatalogHandler(artists, songs, log)
	adminH := handler.NewAdminHandler(users, log)
	for _, t := range []*time.Duration{&authH.Timeout, &followH.Timeout, &catalogH.Timeout, &adminH.Timeout} {
		*t = cfg.RequestTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID(), middleware.Observe(log), middleware.Recover(log))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, auth, loginLimiter)
	router.RegisterFollow(e, followH, auth, apiLimiter)
	router.RegisterCatalog(e, catalogH, auth, artistCache, apiLimiter)
	router.RegisterAdmin(e, adminH, followH, auth)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	workers.Wait()
}
