package kafkaconsumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/route-planner/internal/core/observability"
)

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

// groupHandler feeds one claimed partition of invalidations to process, in
// offset order.
type groupHandler struct {
	process messageProcessor
	logger  *slog.Logger
}

func (h *groupHandler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	h.log().InfoContext(sess.Context(), "geocode invalidation partitions assigned", "claims", sess.Claims())
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	h.log().InfoContext(sess.Context(), "geocode invalidation partitions released")
	return nil
}

// ConsumeClaim commits an offset only once its addresses were evicted. A
// failed eviction ends the claim so the group redelivers from that offset.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("invalidation claim on partition %d: %w", claim.Partition(), ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			start := time.Now()
			if err := h.process(ctx, msg); err != nil {
				obs.IncInvalidation("redeliver")
				h.log().WarnContext(ctx, "geocode invalidation will be redelivered",
					"partition", msg.Partition, "offset", msg.Offset, "err", err)
				return fmt.Errorf("invalidation at partition %d offset %d: %w", msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
			h.log().DebugContext(ctx, "geocode invalidation committed",
				"partition", msg.Partition, "offset", msg.Offset, "elapsed", time.Since(start))
		}
	}
}
