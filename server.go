package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/middlewares"
	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/store"
	"github.com/genautech/rewards_backend/utils"
	"github.com/genautech/rewards_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// openRepositories connects the configured backend. Redis, when configured,
// fronts the catalog with a cache and provides cross-instance budget locks.
func openRepositories(ctx context.Context, logger *logrus.Logger) (workflow.Repositories, workflow.BudgetLocker, func()) {
	var (
		repos   workflow.Repositories
		closers []func()
	)

	if config.DatabaseDriver() == config.DriverMemory {
		logger.WithFields(logrus.Fields{"field": "database"}).Warn("DB_DRIVER=memory; data is lost on restart")
		repos = workflow.RepositoriesFrom(store.NewMemoryStore())
	} else {
		db := config.ConnectDatabaseWithRetry()
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		// AutoMigrate can block tables; production runs it as a separate job.
		if !config.BoolFromEnv("SKIP_MIGRATIONS") {
			if err := models.MigrateTable(db); err != nil {
				logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
			}
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		repos = workflow.RepositoriesFrom(store.NewGormStore(db))
	}

	var locker workflow.BudgetLocker = workflow.NewLocalBudgetLocker()
	if config.ConnectRedisWithRetry(ctx) {
		rdb := config.GetRedisDB()
		repos.BaseProducts = store.NewCachedBaseProducts(repos.BaseProducts, rdb, config.CacheLifespan(), logger)
		locker = workflow.NewRedisBudgetLocker(config.GetRedisLock(), config.ReplicationLockTTL(), logger)
		closers = append(closers, func() { _ = rdb.Close() })
	}

	return repos, locker, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production only CORS_ALLOWED_ORIGINS may call; elsewhere allow all.
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
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	return corsConfig
}

func newRouter(app *App) *gin.Engine {
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware(app.Repos.BaseProducts))
	r.Use(customErrorLogger(app.Logger))
	r.Use(gin.Recovery())

	h := &handlers{app: app}

	r.GET("/base-products", h.listBaseProducts)
	r.POST("/base-products", middlewares.RequireUser(), h.saveBaseProduct)

	budgets := r.Group("/budgets")
	budgets.GET("", h.listBudgets)
	budgets.POST("", middlewares.RequireUser(), h.createBudget)
	budgets.GET("/:id", h.getBudget)
	budgets.GET("/:id/items", h.listItems)
	budgets.POST("/:id/items", middlewares.RequireUser(), h.addItem)
	budgets.PUT("/:id/items", middlewares.RequireUser(), h.replaceItems)
	budgets.PUT("/:id/items/:itemId", middlewares.RequireUser(), h.updateItem)
	budgets.DELETE("/:id/items/:itemId", middlewares.RequireUser(), h.deleteItem)
	budgets.POST("/:id/totals", h.calculateTotals)
	budgets.PUT("/:id/status", h.requestTransition)
	budgets.PUT("/:id/archive", middlewares.RequireUser(), h.archiveBudget)

	replication := r.Group("/replication")
	replication.POST("/budget", h.replicateBudget)
	replication.POST("/product", h.replicateProduct)
	replication.GET("/logs", h.listLogs)
	replication.GET("/logs/export", h.exportLogs)
	replication.GET("/logs/:id", h.getLog)

	r.GET("/companies/:companyId/products", h.listCompanyProducts)

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	repos, locker, closeRepos := openRepositories(sigCtx, logger)
	defer closeRepos()

	app := NewApp(repos, locker, logger)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(app),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"info":   "Connection Established",
		"driver": config.DatabaseDriver(),
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
