package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"steamtracker/internal/client/steam"
	"steamtracker/internal/config"
	cronrunner "steamtracker/internal/cron"
	"steamtracker/internal/db"
	"steamtracker/internal/handler"
	"steamtracker/internal/logger"
	gormrepository "steamtracker/internal/repository/gorm"
	"steamtracker/internal/scraper"
	"steamtracker/internal/service"

	_ "steamtracker/docs"
)

func main() {
	cfgPath := os.Getenv("ST_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ST_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm, cfg.Catalog.LowWindowDays)
	metrics := service.NewCollectorMetrics()
	steamClient := steam.New(cfg.Steam, logger)

	topSellers, err := scraper.NewTopSellers(cfg.Steam, cfg.Toplist.Pages, logger)
	if err != nil {
		logger.Fatal("scraper init failed", zap.Error(err))
	}

	priceSync := &service.PriceSyncService{
		Store:         store,
		Steam:         steamClient,
		Logger:        logger,
		Metrics:       metrics,
		BatchSize:     cfg.PriceSync.BatchSize,
		SleepPerGame:  cfg.PriceSync.SleepPerGame,
		Resume:        cfg.PriceSync.Resume,
		MaxConsecFail: cfg.PriceSync.MaxConsecFail,
	}
	toplistSync, err := service.NewToplistSyncService(store, topSellers, steamClient, cfg.Toplist.FreeCacheSize, logger, metrics)
	if err != nil {
		logger.Fatal("toplist service init failed", zap.Error(err))
	}
	queryService := &service.CatalogQueryService{
		Store:        store,
		Logger:       logger,
		PageSize:     cfg.Catalog.PageSize,
		MaxPageSize:  cfg.Catalog.MaxPageSize,
		ForecastSpan: cfg.Catalog.ForecastSpan,
	}
	authService := &service.AuthService{
		Store:       store,
		TokenTTL:    cfg.Auth.TokenTTL,
		BcryptCost:  cfg.Auth.BcryptCost,
		MinPassword: cfg.Auth.MinPassword,
	}
	watchlistService := &service.WatchlistService{Store: store, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	gamesHandler := &handler.GamesHandler{Query: queryService, Logger: logger}
	gamesHandler.Register(engine)
	dealsHandler := &handler.DealsHandler{Query: queryService, Logger: logger}
	dealsHandler.Register(engine)
	authHandler := &handler.AuthHandler{Auth: authService, Logger: logger}
	authHandler.Register(engine)
	watchlistHandler := &handler.WatchlistHandler{
		Watchlist: watchlistService,
		Auth:      authService,
		Logger:    logger,
	}
	watchlistHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		PriceSync: priceSync,
		Toplist:   toplistSync,
		Store:     store,
		Logger:    logger,
	}
	syncHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if cfg.PriceSync.Enabled {
			_, err := cronRunner.Add(cfg.Cron.PriceSync, func(ctx context.Context) {
				result, err := priceSync.Run(ctx)
				if err != nil {
					logger.Warn("cron price sync failed", zap.Error(err))
					return
				}
				logger.Info("cron price sync ok",
					zap.Int("scanned", result.Scanned),
					zap.Int("priced", result.Priced),
					zap.Bool("done", result.Done),
				)
			})
			if err != nil {
				logger.Warn("cron register price sync failed", zap.Error(err))
			}
		}
		if cfg.Toplist.Enabled {
			_, err := cronRunner.Add(cfg.Cron.Toplist, func(ctx context.Context) {
				result, err := toplistSync.Run(ctx)
				if err != nil {
					logger.Warn("cron toplist sync failed", zap.Error(err))
					return
				}
				logger.Info("cron toplist sync ok",
					zap.Int("seen", result.Seen),
					zap.Int("added", result.Added),
				)
			})
			if err != nil {
				logger.Warn("cron register toplist sync failed", zap.Error(err))
			}
		}
		_, err = cronRunner.Add("@every 1h", func(ctx context.Context) {
			n, err := authService.PruneExpiredTokens(ctx)
			if err != nil {
				logger.Warn("token prune failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("pruned expired tokens", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register token prune failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
