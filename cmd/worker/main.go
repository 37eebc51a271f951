package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/faida-app/faida/internal/app"
	"github.com/faida-app/faida/internal/platform/cache"
	"github.com/faida-app/faida/internal/platform/db"
	"github.com/faida-app/faida/internal/report"
	"github.com/faida-app/faida/internal/stock"
	"github.com/faida-app/faida/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	clock, err := report.NewClock(cfg.Timezone)
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	buying, _ := cfg.BuyingPrice()
	selling, _ := cfg.SellingPrice()

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, stock.PriceDefaults{BuyingPrice: buying, SellingPrice: selling}, logger)
	reportRepo := report.NewRepository(pool)
	calculator := report.NewCalculator(reportRepo, stockService, reportRepo, clock, logger)
	store := report.NewStore(calculator, reportRepo, logger)

	dailyJob := jobs.NewReportDailyJob(store, reportRepo, clock, logger)

	// Empty payload means every vendeur, previous local day. The
	// schedule runs in UTC; 22:30 UTC is 00:30 in Africa/Lubumbashi,
	// which observes no daylight saving.
	dailyTask, err := jobs.NewReportDailyTask(jobs.ReportDailyPayload{})
	if err != nil {
		logger.Error("build daily report task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportDaily, Handler: dailyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 22 * * *", Task: dailyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("queue", jobs.QueueDefault))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
