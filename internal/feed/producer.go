package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// PresenceProducer broadcasts board liveness on the presence topic, the
// "who is online" channel the rest of the platform reads.
type PresenceProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

type presenceMessage struct {
	TenantID  string    `json:"tenant_id"`
	SessionID string    `json:"session_id"`
	Client    string    `json:"client"`
	Online    bool      `json:"online"`
	SentAt    time.Time `json:"sent_at"`
}

func NewPresenceProducer(brokerList, topic string, log *zap.Logger) (*PresenceProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokers := strings.Split(brokerList, ",")
	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create presence producer: %w", err)
	}

	log.Info("presence producer created", zap.Strings("brokers", brokers))
	return &PresenceProducer{producer: producer, topic: topic, log: log}, nil
}

func (p *PresenceProducer) Announce(tenantID, sessionID string, online bool) error {
	msg := presenceMessage{
		TenantID:  tenantID,
		SessionID: sessionID,
		Client:    "kitchen-board",
		Online:    online,
		SentAt:    time.Now().UTC(),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(tenantID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		p.log.Warn("presence announce failed", zap.Error(err))
		return err
	}
	return nil
}

// Heartbeat announces online on the given interval until ctx ends, then
// sends a final offline marker. Presence is advisory; individual send
// failures are logged and skipped.
func (p *PresenceProducer) Heartbeat(ctx context.Context, tenantID, sessionID string, every time.Duration) error {
	if err := p.Announce(tenantID, sessionID, true); err != nil {
		p.log.Warn("initial presence announce failed", zap.Error(err))
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Announce(tenantID, sessionID, false)
			return nil
		case <-ticker.C:
			if err := p.Announce(tenantID, sessionID, true); err != nil {
				p.log.Warn("presence heartbeat failed", zap.Error(err))
			}
		}
	}
}

func (p *PresenceProducer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
