package handlers

import (
	"net/http"
	"strconv"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const statsBasePath = "/api/stats"

// StatsProxyHandler forwards stats reads to the external backend
type StatsProxyHandler struct {
	client *clients.StatsBackendClient
	logger *logrus.Logger
}

// NewStatsProxyHandler creates the proxy handler
func NewStatsProxyHandler(client *clients.StatsBackendClient, logger *logrus.Logger) *StatsProxyHandler {
	return &StatsProxyHandler{client: client, logger: logger}
}

// ProxyHandler passes status and JSON body through
// GET /api/stats
// GET /api/stats/*path
func (h *StatsProxyHandler) ProxyHandler(c *gin.Context) {
	if !h.client.Configured() {
		metrics.StatsProxyRequests.WithLabelValues("not_configured").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stats API not configured"})
		return
	}

	path := statsBasePath
	if sub := c.Param("path"); sub != "" && sub != "/" {
		path += sub
	}
	rawQuery := c.Request.URL.RawQuery
	log := h.logger.WithFields(logrus.Fields{
		"path":   path,
		"target": h.client.TargetURL(path, rawQuery),
	})
	log.Debug("📊 Proxying stats request")

	status, body, err := h.client.Forward(c.Request.Context(), path, rawQuery)
	if err != nil {
		metrics.StatsProxyRequests.WithLabelValues("bad_gateway").Inc()
		log.WithError(err).Error("❌ Stats proxy request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch stats"})
		return
	}

	if status < 200 || status >= 300 {
		log.WithFields(logrus.Fields{"status": status, "body": string(body)}).Error("❌ Stats backend returned an error")
	}
	metrics.StatsProxyRequests.WithLabelValues(strconv.Itoa(status)).Inc()

	if !gjson.ValidBytes(body) {
		body = []byte("{}")
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
