// Package events publishes payment lifecycle notifications for downstream
// consumers. Nothing here is load-bearing for the approval flow itself: a
// deployment without brokers degrades to logs and metrics.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/telemetry"
)

const (
	stateTopic       = "payment.state.changed"
	netCancelSubject = "payment.netcancel.failed"
)

type Publisher struct {
	writer *kafka.Writer
	nc     *nats.Conn
}

// NewPublisher builds a publisher for whichever transports are configured.
// Empty broker addresses leave that transport off.
func NewPublisher(kafkaBrokers string, nc *nats.Conn) *Publisher {
	p := &Publisher{nc: nc}
	if kafkaBrokers != "" {
		p.writer = &kafka.Writer{
			Addr:     kafka.TCP(kafkaBrokers),
			Topic:    stateTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return p
}

// StateChanged publishes one orchestrator state transition, keyed by order id.
func (p *Publisher) StateChanged(ctx context.Context, oid string, from, to models.PaymentState) {
	if p == nil || p.writer == nil {
		return
	}

	event := map[string]interface{}{
		"order_id":       oid,
		"state":          to,
		"previous_state": from,
		"timestamp":      time.Now(),
	}
	eventJSON, _ := json.Marshal(event)

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(oid),
		Value: eventJSON,
	}); err != nil {
		telemetry.Logger.Error("Failed to publish state change event",
			zap.String("order_id", oid),
			zap.String("state", string(to)),
			zap.Error(err),
		)
	}
}

// NetCancelFailed raises a fire-and-forget operator alert for a compensation
// that could not be confirmed. The buyer-facing result never carries this
// detail; the ops channel is where it surfaces.
func (p *Publisher) NetCancelFailed(oid, idc, reason string) {
	if p == nil || p.nc == nil {
		return
	}

	alert := map[string]string{
		"order_id": oid,
		"idc":      idc,
		"reason":   reason,
	}
	alertJSON, _ := json.Marshal(alert)

	if err := p.nc.Publish(netCancelSubject, alertJSON); err != nil {
		telemetry.Logger.Error("Failed to publish net cancel alert",
			zap.String("order_id", oid),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.writer != nil {
		_ = p.writer.Close()
	}
	if p.nc != nil {
		p.nc.Close()
	}
}
