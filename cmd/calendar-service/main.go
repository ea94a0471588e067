// cmd/calendar-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"compliance-calendar/internal/api"
	"compliance-calendar/internal/calendar"
	"compliance-calendar/internal/common/aws"
	"compliance-calendar/internal/common/config"
	"compliance-calendar/internal/common/database"
	"compliance-calendar/internal/common/httpclient"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/common/observability"
	"compliance-calendar/internal/notify"
	"compliance-calendar/internal/store"
	"compliance-calendar/pkg/registry"

	dispatch "compliance-calendar/internal/jobs/dispatch-reminders"
	materialize "compliance-calendar/internal/jobs/materialize-recurrence"
	sweep "compliance-calendar/internal/jobs/sweep-missed"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting compliance calendar service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional, audit trail only) ---
	var auditor notify.Auditor = &notify.NoopAuditor{}
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		auditor = notify.NewESAuditor(esClient.Client, cfg.Database.Elasticsearch.AuditIndex)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Notification registry ---
	reg := registry.DefaultRegistry()
	if cfg.Notifications.RegistryPath != "" {
		reg, err = registry.LoadRegistry(cfg.Notifications.RegistryPath)
		if err != nil {
			zapLog.Fatal("notification registry load failed", zap.Error(err))
		}
	}

	// --- Channel senders ---
	var senders []notify.ChannelSender
	if cfg.Notifications.InApp.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		senders = append(senders, notify.NewInAppSender(pg.DB, snsClient, cfg.Notifications.InApp.SNSTopicARN, log))
	}
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		senders = append(senders, notify.NewEmailSender(sesClient, pg.DB, cfg.Notifications.Email.FromEmail))
	}
	if cfg.Notifications.WhatsApp.Enabled {
		httpClient := httpclient.NewClient(config.GetDuration(cfg.Notifications.WhatsApp.Timeout))
		senders = append(senders, notify.NewWhatsAppSender(httpClient, pg.DB, cfg.Notifications.WhatsApp.BaseURL, cfg.Notifications.WhatsApp.Token))
	}
	notifier := notify.NewService(log, senders...)

	// --- Stores and services ---
	events := store.NewEventStore(pg.DB)
	statuses := store.NewStatusStore(pg.DB)
	reminders := store.NewReminderStore(pg.DB)
	lease := store.NewJobLease(rdb.Client)

	tracker := calendar.NewTracker(events, statuses, reminders, rdb.Client, log)
	scheduler := calendar.NewScheduler(events, statuses, reminders, log)

	// --- Periodic jobs ---
	c := cron.New()

	registerJob := func(name string, job func(ctx context.Context) error) {
		if !config.IsJobEnabled(cfg, name) {
			zapLog.Info("job disabled", zap.String("job", name))
			return
		}
		jobCfg := config.GetJobConfig(cfg, name)
		_, err := c.AddFunc(jobCfg.Schedule, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(jobCfg.Timeout))
			defer cancel()

			start := time.Now()
			// A failed run is recorded and swallowed so it never blocks
			// the next tick.
			if err := job(runCtx); err != nil {
				obs.RecordJobRun(runCtx, name, "error")
				zapLog.Error("job run failed", zap.String("job", name), zap.Error(err))
			} else {
				obs.RecordJobRun(runCtx, name, "success")
			}
			obs.RecordJobDuration(runCtx, name, time.Since(start))
		})
		if err != nil {
			zapLog.Fatal("job registration failed", zap.String("job", name), zap.Error(err))
		}
		zapLog.Info("job registered", zap.String("job", name), zap.String("schedule", jobCfg.Schedule))
	}

	dispatchCfg := dispatch.DefaultConfig()
	jobCfg := config.GetJobConfig(cfg, config.JobDispatchReminders)
	dispatchCfg.BatchSize = jobCfg.BatchSize
	dispatchCfg.LeaseTTL = config.GetDuration(jobCfg.LeaseTTL)
	dispatcher := dispatch.NewHandler(dispatch.Dependencies{
		Reminders: reminders,
		Notifier:  notifier,
		Auditor:   auditor,
		Lease:     lease,
	}, dispatchCfg, reg, log)
	registerJob(config.JobDispatchReminders, func(ctx context.Context) error {
		_, err := dispatcher.Run(ctx)
		return err
	})

	sweepCfg := sweep.DefaultConfig()
	sweepCfg.LeaseTTL = config.GetDuration(config.GetJobConfig(cfg, config.JobSweepMissed).LeaseTTL)
	sweeper := sweep.NewHandler(sweep.Dependencies{
		Events:    events,
		Statuses:  statuses,
		Reminders: reminders,
		Lease:     lease,
	}, sweepCfg, cfg.App.SystemActor, log)
	registerJob(config.JobSweepMissed, func(ctx context.Context) error {
		_, err := sweeper.Run(ctx)
		return err
	})

	matCfg := materialize.DefaultConfig()
	matCfg.LeaseTTL = config.GetDuration(config.GetJobConfig(cfg, config.JobMaterializeRecurrence).LeaseTTL)
	materializer := materialize.NewHandler(materialize.Dependencies{
		Events: events,
		Lease:  lease,
	}, matCfg, cfg.App.SystemActor, log)
	registerJob(config.JobMaterializeRecurrence, func(ctx context.Context) error {
		_, err := materializer.Run(ctx)
		return err
	})

	c.Start()
	zapLog.Info("cron scheduler started")

	// --- HTTP server ---
	router := api.NewRouter(cfg, api.NewHandlers(events, tracker, scheduler), log)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// pprof on a side port, never exposed through the main listener
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			zapLog.Warn("pprof listener stopped", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")

	cronCtx := c.Stop()
	<-cronCtx.Done()
	zapLog.Info("cron scheduler drained")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("compliance calendar service stopped")
}
