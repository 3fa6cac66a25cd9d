package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"investment-platform/internal/config"
	"investment-platform/internal/domain/ports/adapter"
	"investment-platform/internal/infra/api"
	pg "investment-platform/internal/infra/db/postgres"
	"investment-platform/internal/infra/logging"
	"investment-platform/internal/infra/metrics"
	"investment-platform/internal/infra/notify"
	red "investment-platform/internal/infra/redis"
	"investment-platform/internal/infra/sched"
	"investment-platform/internal/infra/web"
	"investment-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	packageCache := red.NewPackageCache(redisClient, cfg.Redis.TTL)

	// ---- Admin alert channel ----
	var notifier adapter.AdminNotifier
	if cfg.Notify.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
	} else {
		logger.Warn().Msg("notify.telegram_token not set; admin alerts disabled")
		notifier = notify.NewNoopNotifier()
	}

	// ---- Repositories ----
	loc := cfg.Settings.Location()
	userRepo := pg.NewUserRepo(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	packageRepo := pg.NewPackageRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	yieldRepo := pg.NewDailyYieldRepo(pool)
	withdrawalRepo := pg.NewWithdrawalRepo(pool, loc)
	depositRepo := pg.NewDepositRepo(pool)
	giftRepo := pg.NewGiftCodeRepo(pool)
	noteRepo := pg.NewNotificationRepo(pool)

	// ---- Use cases ----
	s := cfg.Settings
	walletUC := usecase.NewWalletUseCase(userRepo, ledgerRepo, txManager, logger)
	noteUC := usecase.NewNotificationUseCase(noteRepo, notifier, logger)
	referral := usecase.NewReferralDispatcher(userRepo, subRepo, walletUC, noteUC,
		s.ReferralPurchasePercent, s.ReferralYieldPercent, s.Currency, logger)
	userUC := usecase.NewUserUseCase(userRepo, ledgerRepo, logger)
	packageUC := usecase.NewPackageUseCase(packageRepo, packageCache, logger)
	purchaseUC := usecase.NewPurchaseUseCase(subRepo, packageRepo, yieldRepo, walletUC,
		referral, noteUC, txManager, s.PendingPaymentTTL, s.Currency, loc, logger)
	yieldUC := usecase.NewYieldUseCase(subRepo, yieldRepo, walletUC, referral, txManager,
		s.Currency, loc, logger)
	withdrawalUC := usecase.NewWithdrawalUseCase(userRepo, withdrawalRepo, walletUC, noteUC,
		txManager, s.MinWithdrawalAmount, s.WithdrawalOpenHour, s.WithdrawalCloseHour,
		s.Currency, loc, logger)
	depositUC := usecase.NewDepositUseCase(userRepo, depositRepo, walletUC, noteUC,
		txManager, s.MinDepositAmount, s.Currency, logger)
	giftUC := usecase.NewGiftCodeUseCase(giftRepo, walletUC, noteUC, txManager,
		s.GiftCodePrefix, s.Currency, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo, packageRepo, withdrawalRepo, depositRepo)

	// ---- Public API ----
	userAuth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	apiSrv := api.NewServer(userUC, walletUC, packageUC, purchaseUC, yieldUC,
		withdrawalUC, depositUC, giftUC, noteUC, userAuth, locker, rateLimiter, logger)
	publicServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: apiSrv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", publicServer.Addr).Msg("public api listening")
		if err := publicServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("public api server error")
		}
	}()

	// ---- Admin API + metrics ----
	adminAuth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	adminSrv := web.NewServer(userUC, walletUC, statsUC, packageUC, purchaseUC,
		withdrawalUC, depositUC, giftUC, noteUC, adminAuth, logger)
	adminMux := http.NewServeMux()
	adminSrv.RegisterRoutes(adminMux)
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.AdminPort),
		Handler: api.Chain(adminMux, api.TraceID(), api.Recover(logger), api.RequestLog(logger)),
	}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin api listening")
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin api server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpirySweepInterval, purchaseUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = publicServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}
