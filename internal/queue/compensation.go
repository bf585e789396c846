package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/salon-booking/internal/observability/metrics"
)

// ErrRedeliver asks the consumer to hand the delivery back to the broker
// instead of discarding it.
var ErrRedeliver = errors.New("redeliver")

// CompensationExecutor applies a compensation action.
type CompensationExecutor interface {
	Execute(ctx context.Context, cmd CompensationCommand) error
}

// CompensationHandler retries queued compensations. A command that still
// fails after MaxAttempts is dead-lettered: logged with alert=true, counted
// and dropped.
type CompensationHandler struct {
	Exec        CompensationExecutor
	MaxAttempts int
	Log         zerolog.Logger
	// Backoff is the pause before re-enqueueing attempt n.
	Backoff func(attempt int) time.Duration
}

// Handle processes one command. requeue publishes the next attempt.
func (h *CompensationHandler) Handle(ctx context.Context, body []byte, requeue func(context.Context, CompensationCommand) error) error {
	var cmd CompensationCommand
	if err := json.Unmarshal(body, &cmd); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	log := h.Log.With().
		Str("saga_id", cmd.SagaID).Str("action", cmd.Action).
		Str("target", cmd.TargetID).Int("attempt", cmd.Attempt+1).Logger()

	err := h.Exec.Execute(ctx, cmd)
	if err == nil {
		metrics.ObserveCompensationCommand(cmd.Action, "ok")
		log.Info().Msg("queued compensation applied")
		return nil
	}

	cmd.Attempt++
	cmd.LastError = err.Error()
	if cmd.Attempt >= h.MaxAttempts {
		metrics.ObserveCompensationCommand(cmd.Action, "dead_letter")
		metrics.ObserveRollbackFailure(cmd.Step)
		log.Error().Bool("alert", true).Err(err).Msg("compensation exhausted retries; manual cleanup required")
		return nil
	}

	metrics.ObserveCompensationCommand(cmd.Action, "retry")
	log.Warn().Err(err).Msg("compensation failed; re-enqueueing")
	if h.Backoff != nil {
		sleep(ctx, h.Backoff(cmd.Attempt))
	}
	if rerr := requeue(ctx, cmd); rerr != nil {
		metrics.ObserveCompensationCommand(cmd.Action, "redeliver")
		log.Error().Bool("alert", true).Err(rerr).Msg("could not re-enqueue compensation; returning it to the broker")
		return fmt.Errorf("%w: %v", ErrRedeliver, rerr)
	}
	return nil
}

// DefaultBackoff grows linearly and caps at 30s.
func DefaultBackoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// StartCompensationConsumer consumes CompensationsQueue until ctx is done.
func StartCompensationConsumer(ctx context.Context, url string, h *CompensationHandler) error {
	return consume(ctx, url, CompensationsQueue, h.Log, func(ctx context.Context, ch *amqp.Channel, body []byte) error {
		return h.Handle(ctx, body, func(ctx context.Context, cmd CompensationCommand) error {
			return publishJSON(ctx, ch, CompensationsQueue, cmd)
		})
	})
}

// publishJSON sends v as a persistent JSON message to queue via the
// default exchange.
func publishJSON(ctx context.Context, ch *amqp.Channel, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
