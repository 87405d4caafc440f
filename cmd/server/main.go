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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finwise/internal/cache"
	"finwise/internal/config"
	"finwise/internal/db"
	"finwise/internal/handlers"
	"finwise/internal/logger"
	mw "finwise/internal/middleware"
	"finwise/internal/services"
	"finwise/internal/storage"
	"finwise/internal/store"
	"finwise/internal/store/memstore"
	"finwise/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "finwise:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users     services.UserStore
		subs      services.SubmissionStore
		analytics services.AnalyticsStore
		profiles  services.FinancialProfileStore
		pinger    handlers.Pinger
	)
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set; using the in-memory store, data is lost on restart")
		mem := memstore.New()
		users, subs, analytics, profiles = mem.Users(), mem.Submissions(), mem, mem.Profiles()
	} else {
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.RunMigrations(conn); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		users = store.NewUserRepository(conn)
		subs = store.NewQuestionnaireRepository(conn)
		analytics = store.NewAnalyticsRepository(conn)
		profiles = store.NewFinancialProfileRepository(conn)
		pinger = conn
	}

	var revocations token.RevocationList
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = token.NewRedisRevocationList(client)
	} else {
		log.Warn("REDIS_ADDR not set; logout will not revoke tokens server-side")
	}

	var photos services.PhotoStore
	if cfg.PhotoBucket != "" {
		photos, err = storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.PhotoBucket,
			Prefix:    cfg.PhotoPrefix,
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	} else {
		photos, err = storage.NewDirStore(cfg.PhotoDir)
	}
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	issuer := token.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authSvc := services.NewAuthService(users, issuer, revocations, cfg.BcryptCost, log)
	userSvc := services.NewUserService(users, photos, cfg.BcryptCost)
	questionnaireSvc := services.NewQuestionnaireService(subs, loc)
	analyticsSvc := services.NewAnalyticsService(analytics, loc)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         log,
		AuthMW:         mw.NewAuthMiddleware(authSvc, log),
		Metrics:        mw.NewMetrics(),
		Auth:           handlers.NewAuthHandler(authSvc, log, cfg.SecureCookies()),
		Users:          handlers.NewUserHandler(userSvc, log),
		Admin:          handlers.NewAdminHandler(userSvc, log),
		Questionnaires: handlers.NewQuestionnaireHandler(questionnaireSvc, log),
		Profiles:       handlers.NewFinancialProfileHandler(services.NewFinancialProfileService(profiles), log),
		Analytics:      handlers.NewAnalyticsHandler(analyticsSvc, log),
		Health:         handlers.NewHealthHandler(pinger, log),
		ClientOrigins:  cfg.ClientOrigins,
		RequestTimeout: cfg.RequestTimeout,
		LoginRateLimit: cfg.LoginRateLimit,
		Production:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv), zap.String("gate_timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
