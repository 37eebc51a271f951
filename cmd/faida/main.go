package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/faida-app/faida/cmd/faida/cli"
	"github.com/faida-app/faida/internal/app"
	"github.com/faida-app/faida/internal/platform/db"
	"github.com/faida-app/faida/internal/report"
	"github.com/faida-app/faida/internal/sales"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	clock, err := report.NewClock(cfg.Timezone)
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}

	buying, _ := cfg.BuyingPrice()
	selling, _ := cfg.SellingPrice()

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, stock.PriceDefaults{BuyingPrice: buying, SellingPrice: selling}, logger)
	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, logger)
	reportRepo := report.NewRepository(pool)
	calculator := report.NewCalculator(reportRepo, stockService, reportRepo, clock, logger)
	store := report.NewStore(calculator, reportRepo, logger)

	if len(os.Args) > 1 {
		runCommand(ctx, os.Args[1], os.Args[2:], commandDeps{
			cfg:    cfg,
			logger: logger,
			clock:  clock,
			store:  store,
			repo:   reportRepo,
		})
		return
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		StockHandler:  stock.NewHandler(logger, stockService),
		SalesHandler:  sales.NewHandler(logger, salesService),
		ReportHandler: report.NewHandler(logger, calculator, store, clock),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

type commandDeps struct {
	cfg    *app.Config
	logger *slog.Logger
	clock  *report.Clock
	store  *report.Store
	repo   *report.Repository
}

// runCommand dispatches the non-server subcommands.
func runCommand(ctx context.Context, name string, args []string, deps commandDeps) {
	switch name {
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		vendeurID := fs.Int64("vendeur", 0, "vendeur id, 0 for all")
		date := fs.String("date", "", "report date YYYY-MM-DD, defaults to yesterday")
		enqueue := fs.Bool("enqueue", false, "enqueue the run on the job queue instead of running in-process")
		_ = fs.Parse(args)

		if *enqueue {
			client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: deps.cfg.RedisAddr})
			if err != nil {
				deps.logger.Error("jobs client", slog.Any("error", err))
				os.Exit(1)
			}
			defer client.Close()
			info, err := client.EnqueueReportDaily(ctx, jobs.ReportDailyPayload{VendeurID: *vendeurID, Date: *date})
			if err != nil {
				deps.logger.Error("enqueue report run", slog.Any("error", err))
				os.Exit(1)
			}
			deps.logger.Info("report run enqueued", slog.String("task_id", info.ID))
			return
		}

		reportsCLI := cli.NewReportsCLI(deps.store, deps.repo, deps.clock, deps.logger)
		if err := reportsCLI.Generate(ctx, *vendeurID, *date); err != nil {
			deps.logger.Error("report command", slog.Any("error", err))
			os.Exit(1)
		}
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		vendeurID := fs.Int64("vendeur", 0, "vendeur id to seed")
		path := fs.String("file", deps.cfg.SeedFile, "path to the seed JSON file")
		date := fs.String("date", "", "seed date YYYY-MM-DD, defaults to yesterday")
		_ = fs.Parse(args)

		seeder := report.NewSeeder(deps.repo, deps.logger)
		seedCLI := cli.NewSeedCLI(seeder, deps.clock, deps.logger)
		if err := seedCLI.Run(ctx, *vendeurID, *path, *date); err != nil {
			deps.logger.Error("seed command", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		deps.logger.Error("unknown command", slog.String("command", name))
		os.Exit(1)
	}
}
