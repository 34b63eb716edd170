package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kunal-9999/inventory-management-system-sub000/config"
	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/utils"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("STOCKSHEET_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// The listener comes up before the DB connects; only /healthz is
		// served until it does.
		if c.Request.URL.Path != "/healthz" && config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) {
		redisUp := false
		if rdb := config.GetRedisDB(); rdb != nil {
			redisUp = rdb.Ping(config.GetRedisContext()).Err() == nil
		}
		c.JSON(http.StatusOK, gin.H{
			"db":    config.GetDB() != nil,
			"redis": redisUp,
		})
	})

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("x-correlation-id", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	registry := newSheetRegistry(logger)
	registerRoutes(r, registry)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("server.listen")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			config.LogError(logger, "main.go", "main", "ListenAndServe", port, err)
			os.Exit(1)
		}
	}()

	// Connect dependencies after the listener is up.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.AutoMigrateSheetTables(config.GetDB()); err != nil {
		config.LogError(logger, "main.go", "main", "AutoMigrateSheetTables", nil, err)
		os.Exit(1)
	}
	registry.setStore(models.NewSheetStore(config.GetDB()))

	<-sigCtx.Done()
	logger.Info("server.shutdown")
	registry.shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
