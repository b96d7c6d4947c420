package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pokrovsky/timetable-api/internal/fetch"
	"github.com/pokrovsky/timetable-api/internal/handler"
	"github.com/pokrovsky/timetable-api/internal/middleware"
	"github.com/pokrovsky/timetable-api/internal/notify"
	"github.com/pokrovsky/timetable-api/internal/repository"
	"github.com/pokrovsky/timetable-api/internal/service"
	"github.com/pokrovsky/timetable-api/pkg/cache"
	"github.com/pokrovsky/timetable-api/pkg/config"
	"github.com/pokrovsky/timetable-api/pkg/database"
	"github.com/pokrovsky/timetable-api/pkg/jobs"
	"github.com/pokrovsky/timetable-api/pkg/logger"
	corsmiddleware "github.com/pokrovsky/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pokrovsky/timetable-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	fetcher := fetch.NewClient(cfg.Source.FetchTimeout, cfg.Source.UserAgent,
		fetch.WithRetries(cfg.Source.FetchRetries),
		fetch.WithLogger(logr),
	)

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis init failed", "error", err)
		}
		defer client.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(client, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Notify.RenderCacheTTL, logr, cfg.Redis.Enabled)

	var (
		scheduleStore service.ScheduleStore
		hashStore     service.HashStore
		prefStore     service.PreferenceStore
		eventLog      service.EventLog
		userDir       service.UserDirectory
	)
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("database init failed", "error", err)
		}
		defer db.Close() //nolint:errcheck
		scheduleStore = repository.NewScheduleRepository(db)
		hashStore = repository.NewSheetHashRepository(db)
		prefStore = repository.NewPreferenceRepository(db)
		eventLog = repository.NewEventRepository(db)
		userDir = repository.NewUserRepository(db)
	}

	resolver := service.NewResolverService(fetcher, cfg.Source.PageURL, cfg.Source.LinksTTL,
		cfg.Watcher.ProbeConcurrency, metrics, logr)
	schedules := service.NewScheduleService(resolver, cacheSvc, logr)
	cabinets := service.NewCabinetService(resolver, cacheSvc, logr)

	var sender service.Sender
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramSender(cfg.Telegram.Token)
		if err != nil {
			logr.Sugar().Fatalw("telegram init failed", "error", err)
		}
		sender = tg
	}
	loc, err := time.LoadLocation(cfg.Source.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown timezone, using UTC", "tz", cfg.Source.Timezone)
		loc = time.UTC
	}
	notifier := service.NewNotifyService(schedules, prefStore, eventLog, sender,
		cfg.Notify.SendConcurrency, metrics, logr,
		service.WithUserDirectory(userDir),
		service.WithTimezone(loc))

	notifyQueue, queuedNotifier := service.NewNotifyQueue(notifier, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	if cfg.Watcher.Enabled {
		watcher := service.NewWatcherService(resolver, scheduleStore, hashStore, queuedNotifier, cacheSvc,
			cfg.Watcher.MinInterval, cfg.Watcher.MaxInterval, metrics, logr)
		go watcher.Run(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, cfg.APIPrefix,
		handler.NewLinkHandler(schedules),
		handler.NewScheduleHandler(schedules),
		handler.NewCabinetHandler(cabinets),
		metrics,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
}
