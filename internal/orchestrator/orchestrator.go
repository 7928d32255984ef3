// Package orchestrator drives a PG callback through approval, or through
// network cancellation when the approval outcome cannot be trusted.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kimsangheu/stdpay-gateway/internal/events"
	"github.com/kimsangheu/stdpay-gateway/internal/interfaces"
	"github.com/kimsangheu/stdpay-gateway/internal/metrics"
	"github.com/kimsangheu/stdpay-gateway/internal/models"
	"github.com/kimsangheu/stdpay-gateway/internal/sign"
	"github.com/kimsangheu/stdpay-gateway/internal/telemetry"
)

const defaultTimeout = 10 * time.Second

// Config wires an Orchestrator. Registry, Mid and SignKey are required; the
// rest defaults.
type Config struct {
	Mid      string
	SignKey  string
	Registry interfaces.EndpointRegistry

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client

	// Timeout bounds each outbound call (optional, defaults to 10s).
	Timeout time.Duration

	// Clock supplies approval timestamps (optional, defaults to time.Now).
	Clock func() time.Time

	// Events receives state transitions and ops alerts (optional).
	Events *events.Publisher
}

type Orchestrator struct {
	mid      string
	signKey  string
	registry interfaces.EndpointRegistry
	client   *http.Client
	timeout  time.Duration
	now      func() time.Time
	events   *events.Publisher
}

func New(cfg Config) *Orchestrator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		mid:      cfg.Mid,
		signKey:  cfg.SignKey,
		registry: cfg.Registry,
		client:   client,
		timeout:  timeout,
		now:      now,
		events:   cfg.Events,
	}
}

// Approve runs one authenticated callback through the approval state machine
// and always returns a renderable result. Outward-facing failures carry only
// the sentinel code; cause detail goes to the operator log.
func (o *Orchestrator) Approve(ctx context.Context, cb *models.CallbackPayload) *models.ApprovalResult {
	// The PG-side charge must settle even if the buyer's connection drops,
	// so outbound calls detach from the inbound request lifetime.
	ctx = context.WithoutCancel(ctx)

	o.transition(ctx, cb.OrderNumber, models.StateReceived, models.StateApproving)

	ep, ok := o.registry.Resolve(cb.IdcName)
	if !ok || !o.registry.IsKnownApprovalURL(cb.IdcName, cb.AuthURL) {
		o.transition(ctx, cb.OrderNumber, models.StateApproving, models.StateRejected)
		telemetry.Logger.Warn("Rejected callback with unverified approval URL",
			zap.String("order_id", cb.OrderNumber),
			zap.String("idc", cb.IdcName),
			zap.String("claimed_url", cb.AuthURL),
		)
		return failure(cb, "URL mismatch")
	}

	req := o.newApprovalRequest(cb.AuthToken)

	start := time.Now()
	result, err := o.postForm(ctx, ep.ApprovalURL, req.FormValues())
	metrics.ApprovalDuration.Observe(time.Since(start).Seconds())

	if err == nil && result.ResultCode != "" {
		// The PG's verdict is authoritative either way; deliver it verbatim.
		o.transition(ctx, cb.OrderNumber, models.StateApproving, models.StateParsed)
		telemetry.Logger.Info("Approval response parsed",
			zap.String("order_id", cb.OrderNumber),
			zap.String("result_code", result.ResultCode),
			zap.String("tid", result.Tid),
		)
		return result
	}

	// The approval's fate is unknown: the buyer may have been charged
	// without confirmation. Void it.
	telemetry.Logger.Error("Approval response could not be trusted",
		zap.String("order_id", cb.OrderNumber),
		zap.String("idc", cb.IdcName),
		zap.Error(err),
	)
	o.transition(ctx, cb.OrderNumber, models.StateApproving, models.StateCompensating)
	o.compensate(ctx, cb, ep, req)

	return failure(cb, "payment approval failed")
}

// compensate issues at most one network-cancellation call. The callback's
// netCancelUrl claim faces the same trust check as the approval URL; an
// unmatched claim is a hard failure, never a dial of the claimed URL.
func (o *Orchestrator) compensate(ctx context.Context, cb *models.CallbackPayload, ep models.EndpointPair, req *models.ApprovalRequest) {
	if !o.registry.IsKnownNetCancelURL(cb.IdcName, cb.NetCancelURL) {
		o.transition(ctx, cb.OrderNumber, models.StateCompensating, models.StateCompensationFailed)
		metrics.NetCancelsTotal.WithLabelValues("rejected_url").Inc()
		o.events.NetCancelFailed(cb.OrderNumber, cb.IdcName, "net cancel URL mismatch")
		telemetry.Logger.Error("Net cancel URL claim does not match registry, compensation not sent",
			zap.String("order_id", cb.OrderNumber),
			zap.String("claimed_url", cb.NetCancelURL),
		)
		return
	}

	result, err := o.postForm(ctx, ep.NetCancelURL, req.FormValues())
	if err != nil {
		o.transition(ctx, cb.OrderNumber, models.StateCompensating, models.StateCompensationFailed)
		metrics.NetCancelsTotal.WithLabelValues("failed").Inc()
		o.events.NetCancelFailed(cb.OrderNumber, cb.IdcName, err.Error())
		telemetry.Logger.Error("Network cancellation failed",
			zap.String("order_id", cb.OrderNumber),
			zap.Error(err),
		)
		return
	}

	o.transition(ctx, cb.OrderNumber, models.StateCompensating, models.StateCompensated)
	metrics.NetCancelsTotal.WithLabelValues("ok").Inc()
	telemetry.Logger.Info("Network cancellation confirmed",
		zap.String("order_id", cb.OrderNumber),
		zap.String("result_code", result.ResultCode),
	)
}

func (o *Orchestrator) newApprovalRequest(authToken string) *models.ApprovalRequest {
	timestamp := strconv.FormatInt(o.now().UnixMilli(), 10)
	return &models.ApprovalRequest{
		Mid:          o.mid,
		AuthToken:    authToken,
		Timestamp:    timestamp,
		Signature:    sign.AuthSignature(authToken, timestamp),
		Verification: sign.AuthVerification(authToken, o.signKey, timestamp),
		Charset:      "UTF-8",
		Format:       "JSON",
	}
}

func (o *Orchestrator) postForm(ctx context.Context, rawURL string, form url.Values) (*models.ApprovalResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json, text/plain")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result models.ApprovalResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unparsable PG response: %w", err)
	}
	return &result, nil
}

func (o *Orchestrator) transition(ctx context.Context, oid string, from, to models.PaymentState) {
	metrics.StateTransitions.WithLabelValues(string(to)).Inc()
	o.events.StateChanged(ctx, oid, from, to)
	telemetry.Logger.Info("Payment state transition",
		zap.String("order_id", oid),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
	)
}

// failure builds the sentinel record surfaced to the buyer.
func failure(cb *models.CallbackPayload, msg string) *models.ApprovalResult {
	return &models.ApprovalResult{
		ResultCode: models.ResultFail,
		ResultMsg:  msg,
		Moid:       cb.OrderNumber,
		GoodName:   cb.GoodName,
	}
}
