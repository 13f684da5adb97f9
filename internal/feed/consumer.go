package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/kitchensync/internal/models"
	"go.uber.org/zap"
)

// Consumer drains the durable store's change-data-capture topic for one
// tenant. It implements realtime.Source: Run blocks until ctx ends and owns
// its own reconnection, reporting health through the state callback.
type Consumer struct {
	brokers []string
	topic   string
	group   string
	backoff time.Duration
	cfg     *sarama.Config
	log     *zap.Logger
}

func NewConsumer(kafka models.KafkaConfig, log *zap.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	if kafka.SessionTimeoutMs > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(kafka.SessionTimeoutMs) * time.Millisecond
	} else {
		saramaConfig.Consumer.Group.Session.Timeout = 45 * time.Second
	}

	if kafka.ChangeFeedTopic == "" {
		return nil, fmt.Errorf("change feed topic is required")
	}
	group := kafka.ConsumerGroup
	if group == "" {
		group = "kitchensync-board"
	}
	backoff := kafka.ReconnectBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	return &Consumer{
		brokers: strings.Split(kafka.BrokerList, ","),
		topic:   kafka.ChangeFeedTopic,
		group:   group,
		backoff: backoff,
		cfg:     saramaConfig,
		log:     log,
	}, nil
}

func (c *Consumer) Run(ctx context.Context, tenantID string, deliver func([]byte), state func(models.ConnectionState)) error {
	group, err := sarama.NewConsumerGroup(c.brokers, c.group, c.cfg)
	if err != nil {
		state(models.ConnError)
		return fmt.Errorf("failed to join consumer group: %w", err)
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			c.log.Warn("change feed consumer error", zap.Error(err))
		}
	}()

	handler := &claimHandler{
		tenantID: tenantID,
		deliver:  deliver,
		state:    state,
		log:      c.log,
	}

	for {
		// Consume blocks for one session; it returns on rebalance or broker
		// loss and is entered again until the context ends.
		if err := group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("consume session ended, reconnecting",
				zap.String("topic", c.topic), zap.Error(err))
			state(models.ConnDegraded)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			state(models.ConnConnecting)
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

type claimHandler struct {
	tenantID string
	deliver  func([]byte)
	state    func(models.ConnectionState)
	log      *zap.Logger
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error {
	h.state(models.ConnLive)
	return nil
}

func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		// The topic carries every tenant's rows; drop other tenants before
		// the payload is parsed in full.
		if t := models.TenantOf(msg.Value); t != "" && t != h.tenantID {
			sess.MarkMessage(msg, "")
			continue
		}
		h.deliver(msg.Value)
		sess.MarkMessage(msg, "")
	}
	return nil
}
