package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// 库存查询指标
	// ============================================
	InventoryFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_inventory_fetch_total",
			Help: "Total number of inventory fetches",
		},
		[]string{"chain", "strategy", "result"},
	)

	InventoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nftbridge_inventory_fetch_duration_seconds",
			Help:    "Inventory fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "strategy"},
	)

	MetadataFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_metadata_fetch_total",
			Help: "Total number of token metadata fetches",
		},
		[]string{"result"},
	)

	// ============================================
	// 跨链操作指标
	// ============================================
	BridgeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_bridge_operations_total",
			Help: "Total number of bridge operations by outcome",
		},
		[]string{"direction", "result"},
	)

	BridgePhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_bridge_phase_transitions_total",
			Help: "Total number of bridge phase transitions",
		},
		[]string{"phase"},
	)

	BridgeInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nftbridge_bridge_in_flight",
		Help: "Bridge operation in flight (1=yes, 0=no)",
	})

	// ============================================
	// RPC 指标
	// ============================================
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "method", "status"},
	)

	RPCRateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_rpc_rate_limit_waits_total",
			Help: "Total number of calls delayed by the client-side rate limiter",
		},
		[]string{"chain"},
	)

	// ============================================
	// 统计代理 / 推送指标
	// ============================================
	StatsProxyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nftbridge_stats_proxy_requests_total",
			Help: "Total number of proxied stats requests by response status",
		},
		[]string{"status"},
	)

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nftbridge_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nftbridge_websocket_connections",
		Help: "Number of open WebSocket connections",
	})
)
