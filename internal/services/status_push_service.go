package services

import (
	"encoding/json"
	"sync"
	"time"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/metrics"
	"nft-bridge/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusPublisher receives every bridge status change
type StatusPublisher interface {
	PublishBridgeStatus(op models.BridgeOperation)
}

// PushMessage envelope sent to WebSocket clients
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Data      interface{} `json:"data"`
}

// StatusPushService fans bridge status out to WebSocket clients
type StatusPushService struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
	logger  *logrus.Logger
}

// NewStatusPushService creates the push service
func NewStatusPushService(logger *logrus.Logger) *StatusPushService {
	return &StatusPushService{
		clients: make(map[string]chan []byte),
		logger:  logger,
	}
}

// Register adds a client; messages arrive on the returned channel
func (s *StatusPushService) Register(clientID string) <-chan []byte {
	ch := make(chan []byte, 64)
	s.mu.Lock()
	s.clients[clientID] = ch
	count := len(s.clients)
	s.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	s.logger.WithFields(logrus.Fields{"client_id": clientID, "clients": count}).Info("📡 WebSocket client registered")
	return ch
}

// Unregister removes a client and closes its channel
func (s *StatusPushService) Unregister(clientID string) {
	s.mu.Lock()
	ch, ok := s.clients[clientID]
	if ok {
		delete(s.clients, clientID)
		close(ch)
	}
	count := len(s.clients)
	s.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
}

// ClientCount connected clients
func (s *StatusPushService) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// PublishBridgeStatus broadcasts a bridge_status message; slow clients drop messages
func (s *StatusPushService) PublishBridgeStatus(op models.BridgeOperation) {
	data, err := json.Marshal(PushMessage{
		Type:      "bridge_status",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.New().String(),
		Data:      op,
	})
	if err != nil {
		s.logger.WithError(err).Error("❌ Failed to marshal bridge status")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ch := range s.clients {
		select {
		case ch <- data:
		default:
			s.logger.WithField("client_id", id).Warn("⚠️ WebSocket client buffer full, dropping status")
		}
	}
}

// NATSStatusPublisher publishes status changes to <prefix>.<fromChain>.<phase>
type NATSStatusPublisher struct {
	publisher *clients.NATSPublisher
	logger    *logrus.Logger
}

// NewNATSStatusPublisher wraps a connected publisher
func NewNATSStatusPublisher(publisher *clients.NATSPublisher, logger *logrus.Logger) *NATSStatusPublisher {
	return &NATSStatusPublisher{publisher: publisher, logger: logger}
}

func (p *NATSStatusPublisher) PublishBridgeStatus(op models.BridgeOperation) {
	subject := p.publisher.Subject(op.FromChain, string(op.Phase))
	if err := p.publisher.Publish(subject, op); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("⚠️ Failed to publish bridge status")
	}
}

// StatusPublishers publishes to every member
type StatusPublishers []StatusPublisher

func (ps StatusPublishers) PublishBridgeStatus(op models.BridgeOperation) {
	for _, p := range ps {
		p.PublishBridgeStatus(op)
	}
}
