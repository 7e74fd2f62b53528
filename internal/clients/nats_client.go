package clients

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nft-bridge/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSPublisher publishes bridge lifecycle events for the stats backend
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *logrus.Logger
}

// NewNATSPublisher connects to the NATS server
func NewNATSPublisher(url, subjectPrefix string, timeout time.Duration, logger *logrus.Logger) (*NATSPublisher, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger.Infof("🔌 Using NATS timeout: %v", timeout)

	conn, err := nats.Connect(url,
		nats.Name("nft-bridge"),
		nats.Timeout(timeout),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.NATSConnectionStatus.Set(1)
	logger.WithField("url", url).Info("✅ NATS publisher connected")

	return &NATSPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}, nil
}

// Subject builds <prefix>.<parts...>
func (p *NATSPublisher) Subject(parts ...string) string {
	return BuildSubject(p.subjectPrefix, parts...)
}

// BuildSubject joins non-empty subject tokens with '.'
func BuildSubject(prefix string, parts ...string) string {
	tokens := make([]string, 0, len(parts)+1)
	if prefix != "" {
		tokens = append(tokens, prefix)
	}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return strings.Join(tokens, ".")
}

// Publish marshals payload as JSON and publishes it
func (p *NATSPublisher) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.WithError(err).Warn("NATS drain failed")
	}
	metrics.NATSConnectionStatus.Set(0)
}
