package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/podbrief/podbrief/app/cfg"
	"github.com/podbrief/podbrief/app/database"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, accountRepo database.AccountRepository, workerAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, accountRepo, workerAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, accountRepo database.AccountRepository, workerAccessKey string) {
	// Public podcast feed endpoint
	r.GET("/feed/:token", handler.GetFeed)

	r.GET("/health", handler.GetHealth)

	// Dashboard API, session-authenticated
	api := r.Group("/api")
	api.Use(authMiddleware(accountRepo))
	{
		api.GET("/episodes", handler.ListEpisodes)
		api.GET("/signal-weights", handler.GetSignalWeights)
		api.POST("/signal-weights", handler.UpdateSignalWeights)
		api.GET("/queue", handler.ListQueue)
		api.POST("/queue", handler.CreateQueueItem)
		api.DELETE("/queue/:id", handler.DeleteQueueItem)
		api.POST("/generate", handler.RequestGeneration)
		api.POST("/feed-token", handler.RotateFeedToken)
		api.POST("/push", handler.SubscribePush)
		api.DELETE("/push", handler.UnsubscribePush)
		api.GET("/topics", handler.GetTopics)
	}

	// Worker callback, shared-key authenticated; disabled without a key
	if workerAccessKey != "" {
		workerGroup := r.Group("/worker")
		workerGroup.Use(workerAuthMiddleware(workerAccessKey))
		{
			workerGroup.POST("/episodes", handler.WorkerCreateEpisode)
		}
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "podbrief",
			"version":     cfg.Get().Version,
			"description": "Personal podcast digests generated from your reading queue",
			"endpoints": map[string]string{
				"feed":   "/feed/<token>",
				"health": "/health",
				"api":    "/api (requires session token)",
				"worker": "/worker (requires X-API-Key header)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware resolves the caller's session token to an account. The
// rejection is uniform: missing, malformed, and unknown tokens all produce
// the same 401 before any data access happens.
func authMiddleware(accountRepo database.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("session")
		if err != nil || token == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		account, err := accountRepo.GetBySessionToken(token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		c.Set("account", account)
		c.Next()
	}
}

// workerAuthMiddleware guards worker callback endpoints with the shared key.
func workerAuthMiddleware(workerAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-Key") != workerAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid worker key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func accountFromContext(c *gin.Context) *database.Account {
	return c.MustGet("account").(*database.Account)
}
