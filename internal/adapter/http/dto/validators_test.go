package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

// --- Custom tag tests ---

func TestValidateMoney(t *testing.T) {
	v := newValidator()

	for _, ok := range []string{"1", "0.01", "1000.5", "400.00", "9999999999999999.99"} {
		assert.NoError(t, v.Var(ok, "money"), ok)
	}
	for _, bad := range []string{"0", "0.00", "-5", "1.005", "1e3", "abc", "", " 10", "10."} {
		assert.Error(t, v.Var(bad, "money"), bad)
	}
}

func TestValidateRate(t *testing.T) {
	v := newValidator()

	for _, ok := range []string{"0", "12", "9.5", "100", "7.1234"} {
		assert.NoError(t, v.Var(ok, "rate"), ok)
	}
	for _, bad := range []string{"-1", "100.01", "1.12345", "x"} {
		assert.Error(t, v.Var(bad, "rate"), bad)
	}
}

func TestValidateCurrency(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.Var("INR", "currency"))
	assert.NoError(t, v.Var("usd", "currency"))
	assert.Error(t, v.Var("RUPEE", "currency"))
	assert.Error(t, v.Var("U5D", "currency"))
}

func TestValidateSafeID(t *testing.T) {
	v := newValidator()

	assert.NoError(t, v.Var("UTR-2024/0001.a_b", "safe_id"))
	assert.Error(t, v.Var("ref; DROP TABLE", "safe_id"))
}

func TestMovementRequest_EmbeddedRulesApply(t *testing.T) {
	v := newValidator()

	req := MovementRequest{MovementFields{Amount: "10.00", Document: &DocumentPayload{FileName: "a.pdf", Content: "not base64!"}}}
	require.Error(t, v.Struct(req))

	req.Document.Content = "JVBERi0xLjQ="
	assert.NoError(t, v.Struct(req))

	req.Amount = "0"
	assert.Error(t, v.Struct(req))
}

func TestInterestRequest_Bounds(t *testing.T) {
	v := newValidator()

	assert.Error(t, v.Struct(InterestRequest{}))
	assert.Error(t, v.Struct(InterestRequest{TripIDs: []string{"not-a-uuid"}}))
	assert.NoError(t, v.Struct(InterestRequest{TripIDs: []string{"8b1f7a52-5b8e-4a55-9f55-4c1f0c8b9f10"}}))
}

func TestBidTerms_Domain(t *testing.T) {
	terms := BidTerms{Amount: "45000.50", InterestRate: "12.5", MaturityDays: 30, Notes: "n"}.Domain()

	assert.Equal(t, "45000.5", terms.Amount.String())
	assert.Equal(t, "12.5", terms.InterestRate.String())
	assert.Equal(t, 30, terms.MaturityDays)
}

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RejectBidRequest{Reason: "  rate too high  "}
	SanitizeStruct(&req)

	assert.Equal(t, "rate too high", req.Reason)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := BidTerms{Notes: "<script>alert('x')</script> terms"}
	SanitizeStruct(&req)

	assert.Contains(t, req.Notes, "&lt;script&gt;")
	assert.NotContains(t, req.Notes, "<script>")
}

func TestSanitizeStruct_DescendsIntoEmbedded(t *testing.T) {
	trip := " 8b1f7a52-5b8e-4a55-9f55-4c1f0c8b9f10 "
	req := TransferRequest{FromUserID: " a ", MovementFields: MovementFields{Description: " <b>fuel</b> ", TripID: &trip}}
	SanitizeStruct(&req)

	assert.Equal(t, "a", req.FromUserID)
	assert.Equal(t, "&lt;b&gt;fuel&lt;/b&gt;", req.Description)
	assert.Equal(t, "8b1f7a52-5b8e-4a55-9f55-4c1f0c8b9f10", *req.TripID)
}

func TestSanitizeStruct_IgnoresNonPointer(t *testing.T) {
	req := RejectBidRequest{Reason: "  keep  "}
	SanitizeStruct(req)

	assert.Equal(t, "  keep  ", req.Reason)
}
