package domain

import (
	"github.com/google/uuid"
)

// IdempotentResponse is a cached HTTP response replayed for a repeated Idempotency-Key.
type IdempotentResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// BuildIdempotencyKey scopes a client key to the acting user and route.
func BuildIdempotencyKey(actorID uuid.UUID, route string, clientKey string) string {
	return actorID.String() + ":" + route + ":" + clientKey
}
