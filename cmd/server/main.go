package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"art_studio_backend/internal/config"
	"art_studio_backend/internal/database"
	"art_studio_backend/internal/metrics"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/internal/router"
	"art_studio_backend/internal/services"
	"art_studio_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		utils.LogError(err, "Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	if err := utils.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load(utils.Getenv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return err
	}

	// Initialize Logger
	utils.InitLogger(cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	settings := services.NewSettingService(repositories.NewSettingRepository(), db, cfg.Booking.DefaultMaxPersonsPerClass)
	if err := materializeSettings(ctx, settings); err != nil {
		return err
	}

	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}

	if cfg.App.Env != "dev" && cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	if cfg.Metrics.Enabled {
		engine.Use(metrics.GinMiddleware())
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", utils.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, db, &cfg, tokens)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"addr": cfg.HTTP.Addr, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	utils.LogInfo("Server stopped")
	return nil
}

// materializeSettings makes sure the settings row exists before the first request.
func materializeSettings(ctx context.Context, settings services.SettingService) error {
	current, err := settings.EnsureDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to materialize settings: %w", err)
	}
	utils.LogInfo("Studio settings loaded", map[string]interface{}{
		"max_persons_per_class": current.MaxPersonsPerClass,
		"currency":              current.Currency,
	})
	return nil
}
