package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/Abuqatada01/order-intake/docs"
	"github.com/Abuqatada01/order-intake/internal/config"
	"github.com/Abuqatada01/order-intake/internal/gateway"
	"github.com/Abuqatada01/order-intake/internal/httpx"
	"github.com/Abuqatada01/order-intake/internal/intake"
	"github.com/Abuqatada01/order-intake/internal/store"
)

// @title        Order Intake API
// @version      1.0
// @description  Accepts purchase requests, creates payment-gateway orders and persists order documents.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres pool", zap.Error(err))
	}
	defer pool.Close()

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)
	repo := store.NewPGRepo(pool)
	wf := intake.NewWorkflow(gw, repo, logger, intake.Options{
		Parse: intake.ParseOptions{RequireShipping: cfg.RequireShipping},
		Build: intake.BuildOptions{
			SummaryMaxLen: cfg.SummaryMaxLen,
			FullMaxBytes:  cfg.FullItemsMax,
		},
		CODAsyncWrite: cfg.CODAsyncWrite,
	})

	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(logger), gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.NoMethod(methodNotAllowedHandler())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/orders", livenessHandler())
	r.POST("/orders", createOrderHandler(wf))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("intake-service listening", zap.String("addr", cfg.IntakeAddr))
	if err := r.Run(cfg.IntakeAddr); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
