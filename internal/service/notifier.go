package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// webhookRetryIntervals is the wait before each redelivery attempt.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Webhook request headers.
const (
	HeaderWebhookEvent     = "X-Webhook-Event"
	HeaderWebhookTimestamp = "X-Webhook-Timestamp"
	HeaderWebhookSignature = "X-Webhook-Signature"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// webhookNotifier implements ports.Notifier by POSTing signed events to one endpoint.
type webhookNotifier struct {
	url        string
	secret     string
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	retries    []time.Duration
	log        zerolog.Logger
}

// NewWebhookNotifier creates a notifier delivering to url. An empty url disables delivery.
func NewWebhookNotifier(
	url string,
	secret string,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.Notifier {
	if url == "" {
		return &logNotifier{log: log}
	}
	return &webhookNotifier{
		url:        url,
		secret:     secret,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		retries:    webhookRetryIntervals,
		log:        log,
	}
}

// Notify sends the event asynchronously with retries. It never blocks the caller.
func (n *webhookNotifier) Notify(ctx context.Context, event domain.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("webhook: failed to marshal event")
		return
	}

	go n.deliverWithRetries(body, event)
}

// deliverWithRetries attempts delivery, then waits through each retry interval.
func (n *webhookNotifier) deliverWithRetries(body []byte, event domain.Event) {
	eventID := event.ID.String()

	for attempt := 0; attempt <= len(n.retries); attempt++ {
		if attempt > 0 {
			time.Sleep(n.retries[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			n.log.Error().Err(err).Str("event_id", eventID).Msg("webhook: failed to create request")
			return
		}
		ts := time.Now().Unix()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderWebhookEvent, string(event.Type))
		req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderWebhookSignature, n.sigSvc.Sign(n.secret, WebhookSigningPayload(ts, body)))

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.log.Warn().Err(err).Str("event_id", eventID).Int("attempt", attempt+1).Msg("webhook: delivery failed")
			continue
		}
		if resp.Body != nil {
			resp.Body.Close()
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.log.Info().Str("event_id", eventID).Str("type", string(event.Type)).Int("attempt", attempt+1).Msg("webhook: delivered")
			return
		}

		n.log.Warn().Str("event_id", eventID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: non-2xx response, retrying")
	}

	n.log.Error().Str("event_id", eventID).Str("type", string(event.Type)).Msg("webhook: all retry attempts exhausted")
}

// logNotifier only logs events. Used when no webhook endpoint is configured.
type logNotifier struct {
	log zerolog.Logger
}

func (n *logNotifier) Notify(ctx context.Context, event domain.Event) {
	n.log.Debug().
		Str("event_id", event.ID.String()).
		Str("type", string(event.Type)).
		Str("resource_id", event.ResourceID).
		Msg("event")
}
