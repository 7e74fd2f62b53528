package router

import (
	"net/http"
	"strconv"
	"strings"

	"nft-bridge/internal/config"
	"nft-bridge/internal/handlers"
	"nft-bridge/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept"
)

// Handlers everything the router mounts
type Handlers struct {
	Stats     *handlers.StatsProxyHandler
	Chains    *handlers.ChainConfigHandler
	Inventory *handlers.InventoryHandler
	Bridge    *handlers.BridgeHandler
	WebSocket *handlers.WebSocketHandler
	Auth      *middleware.AuthMiddleware
}

// corsMiddleware CORS middleware; an empty or "*" origin list allows everything
func corsMiddleware(cfg config.CORSConfig, logger *logrus.Logger) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 3600
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, o := range allowedOrigins {
				if strings.TrimSpace(o) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				logger.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
					"remote_addr":     c.ClientIP(),
				}).Warn("🚫 CORS: Request blocked - Origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		if cfg.AllowCredentials && !allowAll {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Next()
	}
}

// requestLogger access log in the service logger
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health" {
			return
		}
		logger.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		}).Debug("🌐 HTTP request")
	}
}

// SetupRouter builds the gin engine
func SetupRouter(cfg *config.Config, h Handlers, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware(cfg.CORS, logger))

	// ============ Check ============
	r.GET("/ping", handlers.PingHandler)
	r.GET("/health", handlers.HealthCheckHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ WebSocket ============
	r.GET("/ws", func(c *gin.Context) {
		h.WebSocket.HandleWebSocket(c.Writer, c.Request)
	})

	api := r.Group("/api")
	{
		// stats proxy
		api.GET("/stats", h.Stats.ProxyHandler)
		api.GET("/stats/*path", h.Stats.ProxyHandler)

		api.GET("/chains", h.Chains.ListChainsHandler)
		api.GET("/inventory/:chain", h.Inventory.GetInventoryHandler)
		api.GET("/session", h.Bridge.GetSessionHandler)

		guarded := api.Group("")
		guarded.Use(h.Auth.RequireAuth())
		{
			guarded.POST("/selection/toggle", h.Bridge.ToggleHandler)
			guarded.POST("/selection/all", h.Bridge.SelectAllHandler)
			guarded.POST("/direction/swap", h.Bridge.SwapDirectionHandler)
			guarded.POST("/bridge", h.Bridge.StartBridgeHandler)
		}
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "API endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
