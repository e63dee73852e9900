// Package kafkaconsumer applies geocode invalidation events from Kafka.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/route-planner/internal/core/observability"
	"github.com/mohammed-shakir/route-planner/internal/invalidation"
	mylog "github.com/mohammed-shakir/route-planner/internal/logger"
)

// Evictor drops cached geocodes for the given addresses.
type Evictor interface {
	Evict(ctx context.Context, addresses ...string) error
}

type Consumer struct {
	cfg     Config
	logger  *slog.Logger
	evictor Evictor
	seen    *idDedupe
}

func New(cfg Config, logger *slog.Logger, e Evictor) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Consumer{cfg: cfg, logger: logger, evictor: e, seen: newIDDedupe(cfg.DedupeSize)}
}

// Start consumes until ctx is done, reconnecting after group errors.
func (c *Consumer) Start(ctx context.Context) error {
	if c.evictor == nil {
		return errors.New("kafkaconsumer: missing evictor")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	ctx = mylog.WithComponent(ctx, "invalidation")
	handler := &groupHandler{process: c.ProcessOne, logger: c.logger}

	c.logger.InfoContext(ctx, "geocode invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "geocode invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil && ctx.Err() == nil {
				c.logger.ErrorContext(ctx, "consumer error", "err", err, "topic", c.cfg.Topic)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
				}
			}
		}
	}
}

// ProcessOne applies a single event. Malformed events are logged and skipped
// so they cannot block the partition; eviction failures are retried.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncInvalidation("decode_error")
		c.logger.WarnContext(ctx, "skipping undecodable invalidation",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncInvalidation("invalid")
		c.logger.WarnContext(ctx, "skipping invalid invalidation",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}

	if c.seen.applied(ev.ID) {
		obs.IncInvalidation("duplicate")
		return nil
	}

	if err := c.evictor.Evict(ctx, ev.Addresses...); err != nil {
		obs.IncInvalidation("error")
		return fmt.Errorf("evict: %w", err)
	}
	c.seen.mark(ev.ID)

	obs.IncInvalidation("applied")
	c.logger.DebugContext(ctx, "invalidated geocodes",
		"op", ev.Op, "addresses", len(ev.Addresses), "source", ev.Source)
	return nil
}
