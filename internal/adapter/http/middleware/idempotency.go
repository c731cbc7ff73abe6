package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotentReplayed  = "Idempotent-Replayed"
	DefaultIdempotencyTTL     = 24 * time.Hour
	maxIdempotencyKeyLength   = 128
	maxIdempotentResponseSize = 1 << 20
	idempotencyReservationTTL = time.Minute
)

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	if w.body.Len()+len(b) <= maxIdempotentResponseSize {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	if w.body.Len()+len(s) <= maxIdempotentResponseSize {
		w.body.WriteString(s)
	}
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when an authenticated caller repeats a
// write with the same Idempotency-Key. Requests without the header pass through.
// The key is reserved before the handler runs, so a retry that arrives while the first
// request is still executing gets 409 instead of running twice. Only 2xx responses are
// stored; any other outcome releases the key. Cache failures never block a request.
func Idempotency(cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.GetHeader(HeaderIdempotencyKey)
		actor, ok := ActorFrom(c)
		if clientKey == "" || !ok || len(clientKey) > maxIdempotencyKeyLength {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := domain.BuildIdempotencyKey(actor.UserID, c.Request.Method+" "+c.FullPath(), clientKey)

		reserved, err := cache.Reserve(ctx, key, idempotencyReservationTTL)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency reservation failed, processing request")
			c.Next()
			return
		}
		if !reserved {
			replayOrConflict(c, cache, key, log)
			return
		}

		kept := false
		defer func() {
			if kept {
				return
			}
			if err := cache.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
			}
		}()

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 || w.body.Len() >= maxIdempotentResponseSize {
			return
		}
		payload, err := json.Marshal(domain.IdempotentResponse{Status: status, Body: w.body.Bytes()})
		if err != nil {
			return
		}
		// The write succeeded, so the key stays held even if the response cannot be
		// stored; the reservation then expires on its own.
		kept = true
		if err := cache.Set(context.WithoutCancel(ctx), key, payload, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
		}
	}
}

func replayOrConflict(c *gin.Context, cache ports.IdempotencyCache, key string, log zerolog.Logger) {
	raw, err := cache.Get(c.Request.Context(), key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("idempotency lookup failed")
	}
	if raw != nil {
		var cached domain.IdempotentResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		}
		log.Warn().Str("key", key).Msg("unreadable idempotent response")
	}
	response.Error(c, apperror.ErrConflict("a request with this Idempotency-Key is still in progress"))
	c.Abort()
}
