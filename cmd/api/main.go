package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
	"github.com/lazaroMB/mcp-to-api/pkg/gateway"
	"github.com/lazaroMB/mcp-to-api/pkg/handlers"
	"github.com/lazaroMB/mcp-to-api/pkg/metrics"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
	"github.com/lazaroMB/mcp-to-api/pkg/registry"
	"github.com/lazaroMB/mcp-to-api/pkg/server"
	"github.com/lazaroMB/mcp-to-api/pkg/transform"
	"github.com/lazaroMB/mcp-to-api/pkg/usage"
)

func main() {
	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()
	config.SetupEnv()

	db, err := openDatabase()
	if err != nil {
		logging.LogErrorf(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := models.MigrationFunc(db); err != nil {
		logging.LogErrorf(err, "Failed to run migrations")
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseURL := config.BaseURL()
	reg := registry.NewRegistry(db, viper.GetDuration("REGISTRY_CACHE_TTL"))
	svc := oauth.NewService(db, oauth.Config{
		Secret:          config.JWTSecret(),
		BaseURL:         baseURL,
		CodeTTL:         viper.GetDuration("AUTH_CODE_TTL"),
		AccessTokenTTL:  viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: viper.GetDuration("REFRESH_TOKEN_TTL"),
	})
	executor := transform.NewExecutor(viper.GetDuration("DOWNSTREAM_TIMEOUT"))
	recorder := usage.NewRecorder(db, viper.GetInt("USAGE_QUEUE_SIZE"))
	defer recorder.Close()
	dispatcher := gateway.NewDispatcher(db, executor, recorder)

	corsOptions := config.CorsConfig(strings.Split(viper.GetString("CORS_HOSTS"), " "))
	srv := server.New(server.Options{
		CORS:                cors.New(corsOptions),
		MaxParallelRequests: viper.GetInt("HTTP_MAX_PARALLEL_REQUESTS"),
		RequestTimeout:      viper.GetDuration("HTTP_REQUEST_TIMEOUT"),
	})
	handlers.RegisterRoutes(srv.Mux(), db, reg, svc, dispatcher, baseURL)

	metrics.AddBuildInfoMetric()
	metrics.RegisterGatewayMetrics()

	addr := fmt.Sprintf("%s:%s", viper.GetString("HOST"), viper.GetString("PORT"))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Mux(),
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.LogErrorf(err, "Error during server shutdown")
		}
	}()

	logging.LogInfof("Listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.LogErrorf(err, "Server stopped unexpectedly")
		os.Exit(1)
	}
}

func openDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		viper.GetString("DB_HOST"),
		viper.GetString("DB_PORT"),
		viper.GetString("DB_USER"),
		viper.GetString("DB_PASS"),
		viper.GetString("DB_NAME"),
		viper.GetString("DB_SSL_MODE"),
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
