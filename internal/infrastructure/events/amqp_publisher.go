package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/streadway/amqp"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const defaultExchange = "football.enrichment"

type AMQPPublisherConfig struct {
	URL       string
	Exchange  string
	Heartbeat time.Duration
}

// AMQPPublisher emits domain events to a topic exchange; the routing key is
// the event type. A dropped connection is redialed on the next publish.
type AMQPPublisher struct {
	cfg    AMQPPublisherConfig
	logger *logging.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(cfg AMQPPublisherConfig, logger *logging.Logger) (*AMQPPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	if strings.TrimSpace(cfg.Exchange) == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	p := &AMQPPublisher{cfg: cfg, logger: logger}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event usecase.Event) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.channel == nil || p.conn == nil || p.conn.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	if err := p.channel.Publish(p.cfg.Exchange, event.Type, false, false, msg); err != nil {
		p.closeLocked()
		return fmt.Errorf("publish event type=%s match_id=%d: %w", event.Type, event.MatchID, err)
	}
	p.logger.DebugContext(ctx, "event published", "type", event.Type, "match_id", event.MatchID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *AMQPPublisher) connectLocked() error {
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: p.cfg.Heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		p.cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.cfg.Exchange, err)
	}

	p.conn = conn
	p.channel = channel
	p.logger.Info("amqp publisher connected", "exchange", p.cfg.Exchange)
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

type eventMessage struct {
	Type       string    `json:"type"`
	MatchID    int64     `json:"match_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func encodeEvent(event usecase.Event) (amqp.Publishing, error) {
	if strings.TrimSpace(event.Type) == "" {
		return amqp.Publishing{}, fmt.Errorf("event type is required")
	}
	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	body, err := sonic.Marshal(eventMessage{
		Type:       event.Type,
		MatchID:    event.MatchID,
		Payload:    event.Payload,
		OccurredAt: occurredAt,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event type=%s: %w", event.Type, err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Type + ":" + strconv.FormatInt(event.MatchID, 10) + ":" + strconv.FormatInt(occurredAt.UnixNano(), 10),
		Timestamp:    occurredAt,
		Type:         event.Type,
		Body:         body,
	}, nil
}
