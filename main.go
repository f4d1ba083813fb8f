package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"LIBRIS-backend/internal/analytics"
	"LIBRIS-backend/internal/catalog"
	"LIBRIS-backend/internal/ledger"
	"LIBRIS-backend/internal/members"
	"LIBRIS-backend/internal/platform/auth"
	"LIBRIS-backend/internal/platform/db"
	"LIBRIS-backend/internal/platform/logging"
)

func main() {
	// .env があれば読み込む（無ければ環境変数をそのまま使う）
	_ = godotenv.Load()

	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		panic("config: mode must be dev or release")
	}

	log, err := logging.New(cfg.Mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting", zap.String("mode", cfg.Mode), zap.String("version", cfg.Version))

	policy := ledger.Policy{
		LoanPeriod: cfg.Lending.LoanPeriod(),
		Retry: ledger.RetryPolicy{
			MaxAttempts:  cfg.Lending.RetryMaxAttempts,
			BaseDelay:    cfg.Lending.RetryBaseDelay(),
			JitterFactor: cfg.Lending.RetryJitterFactor,
		},
	}

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")

	if cfg.UseMockStore {
		// ローカル検証用: 台帳だけインメモリで動かす。DB必須の機能は無効。
		log.Warn("use_mock_store: ledger runs on the in-memory store; catalog/members/analytics/auth are disabled")
		store := ledger.NewMemoryStore()
		ledger.RegisterRoutes(api, ledger.NewLedger(store, log, policy))
	} else {
		conn, err := db.Connect(cfg.DB)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		defer conn.Close()
		log.Info("connected to DB", zap.String("dbname", cfg.DB.DBName))

		secret := []byte(cfg.Auth.JWTSecret)
		if len(secret) == 0 {
			log.Fatal("auth.jwt_secret is required (config or LEDGER_JWT_SECRET)")
		}

		authSvc := auth.NewService(conn, secret)
		auth.RegisterRoutes(api, authSvc)

		protected := api.Group("")
		protected.Use(auth.RequireAuth(secret))

		ledger.RegisterRoutes(protected, ledger.NewLedger(ledger.NewMySQLStore(conn), log, policy))
		catalog.RegisterRoutes(protected, catalog.NewService(conn))
		members.RegisterRoutes(protected, members.NewService(conn))
		analytics.RegisterRoutes(protected, analytics.NewService(conn))
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("shutdown failed", zap.Error(err))
	}
}
