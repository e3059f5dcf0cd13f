package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/tcms/internal/billing"
	"github.com/Spok95/tcms/internal/bot"
	"github.com/Spok95/tcms/internal/config"
	"github.com/Spok95/tcms/internal/dialog"
	"github.com/Spok95/tcms/internal/domain/access"
	"github.com/Spok95/tcms/internal/domain/enrollments"
	"github.com/Spok95/tcms/internal/domain/payments"
	"github.com/Spok95/tcms/internal/domain/users"
	"github.com/Spok95/tcms/internal/infra/db"
	httpx "github.com/Spok95/tcms/internal/infra/http"
	"github.com/Spok95/tcms/internal/infra/logger"
	"github.com/Spok95/tcms/internal/infra/metrics"
	"github.com/Spok95/tcms/internal/scheduler"
)

func runMigrations(dsn, dir string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, dir)
}

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("bad timezone", "tz", cfg.App.Timezone, "err", err)
		return
	}

	if err := runMigrations(cfg.Postgres.DSN, cfg.Postgres.Migrations); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	m := metrics.New(prometheus.DefaultRegisterer)

	enrollRepo := enrollments.NewRepo(pool)
	payRepo := payments.NewRepo(pool)
	usersRepo := users.NewRepo(pool)

	accessSvc := access.NewService(enrollRepo, payRepo, log, m, loc).
		WithDefaultFreeDays(cfg.Access.DefaultFreeDays)
	billingSvc := billing.NewService(enrollRepo, payRepo, log, m, loc).
		WithDefaultFreeDays(cfg.Access.DefaultFreeDays)

	var tgBot *bot.Bot
	if cfg.Telegram.Enabled {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		tgBot = bot.New(api, log, usersRepo, dialog.NewRepo(pool), accessSvc, billingSvc, cfg.Telegram.AdminChatID)
		go func() {
			if err := tgBot.Run(ctx, cfg.Telegram.Timeout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
		log.Info("telegram bot started", "username", api.Self.UserName)
	}

	if cfg.Scheduler.Enabled {
		var notifier scheduler.Notifier
		if tgBot != nil {
			notifier = tgBot
		}
		sch := scheduler.New(scheduler.Config{
			LatePaySpec:  cfg.Scheduler.LatePaySpec,
			ReminderSpec: cfg.Scheduler.ReminderSpec,
			ReminderDays: cfg.Scheduler.ReminderDays,
			JobTimeout:   cfg.Scheduler.JobTimeout,
		}, log, m, loc, enrollRepo, accessSvc, notifier)
		if err := sch.Start(); err != nil {
			log.Error("scheduler start failed", "err", err)
			return
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sch.Stop(stopCtx)
		}()
	}

	if cfg.HTTP.APIToken == "" {
		log.Warn("http.api_token is empty: cashier endpoints are disabled")
	}
	api := httpx.NewAPI(log, accessSvc, billingSvc, cfg.HTTP.APIToken)
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, log, api)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

var _ scheduler.Notifier = (*bot.Bot)(nil)
