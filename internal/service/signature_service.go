package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// DefaultDeliveryTolerance bounds how old a signed webhook delivery may be.
const DefaultDeliveryTolerance = 5 * time.Minute

var (
	ErrDeliverySignature = errors.New("webhook signature mismatch")
	ErrDeliveryStale     = errors.New("webhook timestamp outside tolerance")
)

// HMACSignatureService signs ledger event deliveries with HMAC-SHA256 (lowercase hex).
type HMACSignatureService struct{}

func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	return hmac.Equal([]byte(s.Sign(secretKey, payload)), []byte(signature))
}

// VerifyDelivery checks the X-Webhook-Timestamp and X-Webhook-Signature headers of a
// delivery the way a receiver should: signature first, then freshness against now.
func (s *HMACSignatureService) VerifyDelivery(secretKey, timestamp string, body []byte, signature string, now time.Time, tolerance time.Duration) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrDeliverySignature
	}
	if !s.Verify(secretKey, WebhookSigningPayload(ts, body), signature) {
		return ErrDeliverySignature
	}
	if tolerance <= 0 {
		tolerance = DefaultDeliveryTolerance
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return ErrDeliveryStale
	}
	return nil
}

// WebhookSigningPayload is the signed string: "<unix seconds>.<body>".
func WebhookSigningPayload(timestamp int64, body []byte) string {
	return strconv.FormatInt(timestamp, 10) + "." + string(body)
}
