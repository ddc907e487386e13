package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix is the NATS subject namespace for thread changes.
// Full subjects are "<prefix>.<kind>", the thread id travels in the payload.
const SubjectPrefix = "agora.changes"

// NATSBroker shares change events between server processes.
// Writes go out through Publish; Relay feeds everything received into a local Hub.
type NATSBroker struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// ConnectNATS dials the NATS server with reconnects enabled.
func ConnectNATS(url string, logger *zap.Logger) (*NATSBroker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("agora-appview"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS broker connected", zap.String("url", url))
	return &NATSBroker{nc: nc, logger: logger}, nil
}

// NewNATSBroker wraps an existing connection.
func NewNATSBroker(nc *nats.Conn, logger *zap.Logger) *NATSBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSBroker{nc: nc, logger: logger}
}

// Publish sends e to every process relaying the subject.
func (b *NATSBroker) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.nc.Publish(subjectFor(e.Kind), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Relay forwards every change received from NATS to hub until ctx is done.
func (b *NATSBroker) Relay(ctx context.Context, hub *Hub) error {
	sub, err := b.nc.Subscribe(SubjectPrefix+".>", func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			b.logger.Warn("dropping malformed change event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		hub.Deliver(e)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectPrefix, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("failed to unsubscribe change relay", zap.Error(err))
		}
	}()

	b.logger.Info("relaying change events", zap.String("subject", sub.Subject))
	<-ctx.Done()
	return nil
}

// Close drains pending publishes and closes the connection.
func (b *NATSBroker) Close() {
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn("NATS drain failed", zap.Error(err))
		b.nc.Close()
	}
}

func subjectFor(kind string) string {
	if kind == "" {
		kind = "unknown"
	}
	return SubjectPrefix + "." + kind
}
