package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/adapter/http/middleware"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/internal/core/ports/mocks"
	"trip-finance-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newContext builds a test context for a request made by caller. A nil caller is unauthenticated.
func newContext(method, target string, body interface{}, caller *middleware.Actor, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	var buf []byte
	switch b := body.(type) {
	case nil:
	case string:
		buf = []byte(b)
	default:
		buf, _ = json.Marshal(b)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(buf))
	if buf != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Params = params
	if caller != nil {
		c.Set(middleware.CtxUserID, caller.UserID)
		c.Set(middleware.CtxRole, caller.Role)
	}
	return c, w
}

func newActor(role domain.Role) *middleware.Actor {
	return &middleware.Actor{UserID: uuid.New(), Role: role}
}

func param(name string, id uuid.UUID) gin.Param {
	return gin.Param{Key: name, Value: id.String()}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

// --- Wallet Handler Tests ---

func TestCreateWallet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	admin := newActor(domain.RoleAdmin)
	userID := uuid.New()

	ledger.EXPECT().CreateWallet(gomock.Any(), ports.CreateWalletRequest{
		UserID:   userID,
		Currency: "INR",
		Actor:    admin.UserID,
	}).Return(&domain.Wallet{ID: uuid.New(), UserID: userID, Currency: "INR", Status: domain.WalletStatusActive}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/wallets", dto.CreateWalletRequest{UserID: userID.String(), Currency: "INR"}, admin)
	h.CreateWallet(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, userID.String(), data["user_id"])
	assert.Equal(t, "ACTIVE", data["status"])
}

func TestCreateWallet_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))

	for _, body := range []string{"{}", `{"user_id":"nope"}`, `{"user_id":"` + uuid.NewString() + `","currency":"RUPEE"}`} {
		c, w := newContext(http.MethodPost, "/api/v1/wallets", body, newActor(domain.RoleAdmin))
		h.CreateWallet(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "VAL_001", errorCode(t, w), body)
	}
}

func TestCredit_DecodesDocumentAndMeta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	admin := newActor(domain.RoleAdmin)
	userID, tripID := uuid.New(), uuid.New()
	tripStr := tripID.String()

	ledger.EXPECT().Credit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.MovementRequest) (*domain.TransactionResult, error) {
			assert.Equal(t, userID, req.UserID)
			assert.True(t, decimal.RequireFromString("1000.50").Equal(req.Amount))
			assert.Equal(t, admin.UserID, req.Meta.EnteredBy)
			assert.Equal(t, "UTR-1", req.Meta.ReferenceNumber)
			require.NotNil(t, req.Meta.TripID)
			assert.Equal(t, tripID, *req.Meta.TripID)
			require.NotNil(t, req.Meta.Document)
			assert.Equal(t, "%PDF-1.4", string(req.Meta.Document.Content))
			return &domain.TransactionResult{Transaction: domain.Transaction{ID: uuid.New()}}, nil
		},
	)

	body := dto.MovementRequest{MovementFields: dto.MovementFields{
		Amount:          "1000.50",
		Description:     "advance",
		ReferenceNumber: "UTR-1",
		TripID:          &tripStr,
		Document:        &dto.DocumentPayload{FileName: "proof.pdf", MimeType: "application/pdf", Content: "JVBERi0xLjQ="},
	}}
	c, w := newContext(http.MethodPost, "/", body, admin, param("userId", userID))
	h.Credit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDebit_InvalidUserParam(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))

	c, w := newContext(http.MethodPost, "/", dto.MovementRequest{MovementFields: dto.MovementFields{Amount: "10"}},
		newActor(domain.RoleAdmin), gin.Param{Key: "userId", Value: "abc"})
	h.Debit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransfer_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)

	ledger.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrCurrencyMismatch("INR", "USD"))

	body := dto.TransferRequest{
		FromUserID:     uuid.NewString(),
		ToUserID:       uuid.NewString(),
		MovementFields: dto.MovementFields{Amount: "5"},
	}
	c, w := newContext(http.MethodPost, "/api/v1/transfers", body, newActor(domain.RoleAdmin))
	h.Transfer(c)

	assert.Equal(t, "WL_002", errorCode(t, w))
}

func TestWalletStatusChange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	admin := newActor(domain.RoleAdmin)
	userID := uuid.New()

	ledger.EXPECT().Suspend(gomock.Any(), userID, admin.UserID).
		Return(&domain.Wallet{UserID: userID, Status: domain.WalletStatusSuspended}, nil)
	ledger.EXPECT().Close(gomock.Any(), userID, admin.UserID).
		Return(nil, apperror.ErrInvalidState("wallet", "CLOSED"))

	c, w := newContext(http.MethodPost, "/", nil, admin, param("userId", userID))
	h.Suspend(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUSPENDED", decodeData(t, w)["status"])

	c, w = newContext(http.MethodPost, "/", nil, admin, param("userId", userID))
	h.Close(c)
	assert.Equal(t, "ST_001", errorCode(t, w))
}

func TestGetBalance_OwnerOrAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	owner := newActor(domain.RoleTransporter)

	ledger.EXPECT().GetBalance(gomock.Any(), owner.UserID).Times(2).
		Return(&ports.WalletBalanceView{UserID: owner.UserID, Balance: decimal.RequireFromString("-400"), Currency: "INR"}, nil)

	c, w := newContext(http.MethodGet, "/", nil, owner, param("userId", owner.UserID))
	h.GetBalance(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "-400", decodeData(t, w)["balance"])

	c, w = newContext(http.MethodGet, "/", nil, newActor(domain.RoleAdmin), param("userId", owner.UserID))
	h.GetBalance(c)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another non-admin may not look
	c, w = newContext(http.MethodGet, "/", nil, newActor(domain.RoleLender), param("userId", owner.UserID))
	h.GetBalance(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestGetStatement_DateBounds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	owner := newActor(domain.RoleLender)

	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 1, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	ledger.EXPECT().GetStatement(gomock.Any(), owner.UserID, wantFrom, wantTo).
		Return(&domain.Statement{From: wantFrom, To: wantTo}, nil)

	c, w := newContext(http.MethodGet, "/?from=2024-01-01&to=2024-01-31", nil, owner, param("userId", owner.UserID))
	h.GetStatement(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetStatement_InvalidBound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))
	owner := newActor(domain.RoleLender)

	c, w := newContext(http.MethodGet, "/?from=yesterday", nil, owner, param("userId", owner.UserID))
	h.GetStatement(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory_Paginates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	admin := newActor(domain.RoleAdmin)
	userID := uuid.New()

	ledger.EXPECT().GetHistory(gomock.Any(), userID, 2, 20).Return([]domain.HistoryItem{{}}, int64(41), nil)

	// page_size above the maximum falls back to the default
	c, w := newContext(http.MethodGet, "/?page=2&page_size=500", nil, admin, param("userId", userID))
	h.GetHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(41), data["total"])
	assert.Equal(t, float64(3), data["total_pages"])
}

func TestGetTransaction_Visibility(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	txID, walletID := uuid.New(), uuid.New()
	party, outsider := newActor(domain.RoleLender), newActor(domain.RoleLender)

	detail := &domain.TransactionDetail{
		Transaction: domain.Transaction{ID: txID},
		Entries:     []domain.TransactionEntry{{WalletID: walletID}},
	}
	ledger.EXPECT().GetTransaction(gomock.Any(), txID).Return(detail, nil).Times(3)
	ledger.EXPECT().GetWallet(gomock.Any(), party.UserID).Return(&domain.Wallet{ID: walletID}, nil)
	ledger.EXPECT().GetWallet(gomock.Any(), outsider.UserID).Return(&domain.Wallet{ID: uuid.New()}, nil)

	c, w := newContext(http.MethodGet, "/", nil, party, param("id", txID))
	h.GetTransaction(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/", nil, outsider, param("id", txID))
	h.GetTransaction(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newContext(http.MethodGet, "/", nil, newActor(domain.RoleAdmin), param("id", txID))
	h.GetTransaction(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerify_ReportsConsistency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledger)
	userID := uuid.New()

	ledger.EXPECT().VerifyBalance(gomock.Any(), userID).Return(&domain.BalanceCheck{
		Head: decimal.RequireFromString("600"), Folded: decimal.RequireFromString("600"), Entries: 2,
	}, nil)

	c, w := newContext(http.MethodGet, "/", nil, newActor(domain.RoleAdmin), param("userId", userID))
	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["consistent"])
}

func TestHandlers_RequireActor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl))

	c, w := newContext(http.MethodGet, "/", nil, nil, param("userId", uuid.New()))
	h.GetWallet(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Trip Handler Tests ---

func TestCreateTrip_CallerIsTransporter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	trips := mocks.NewMockTripService(ctrl)
	h := NewTripHandler(trips)
	transporter := newActor(domain.RoleTransporter)
	senderID, tripID := uuid.New(), uuid.New()

	trips.EXPECT().CreateTrip(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CreateTripRequest) (*domain.Trip, error) {
			assert.Equal(t, transporter.UserID, req.TransporterID)
			assert.Equal(t, senderID, req.SenderID)
			assert.Equal(t, "50000", req.LoanAmount.String())
			return &domain.Trip{ID: tripID, TransporterUserID: transporter.UserID, Status: domain.TripStatusActive}, nil
		},
	)

	body := dto.CreateTripRequest{SenderID: senderID.String(), LoanAmount: "50000", Currency: "INR", InterestRate: "12", MaturityDays: 30}
	c, w := newContext(http.MethodPost, "/api/v1/trips", body, transporter)
	h.CreateTrip(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, tripID.String(), c.GetString(middleware.CtxAuditResource))
}

func TestGetTrip_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	trips := mocks.NewMockTripService(ctrl)
	h := NewTripHandler(trips)
	id := uuid.New()

	trips.EXPECT().GetTrip(gomock.Any(), id).Return(nil, apperror.ErrNotFound("Trip"))

	c, w := newContext(http.MethodGet, "/", nil, newActor(domain.RoleLender), param("tripId", id))
	h.GetTrip(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Bid Handler Tests ---

func TestCreateBid_ReturnsInterest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)
	lender := newActor(domain.RoleLender)
	tripID := uuid.New()

	bids.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CreateBidRequest) (*domain.TripBid, error) {
			assert.Equal(t, tripID, req.TripID)
			assert.Equal(t, lender.UserID, req.LenderID)
			return &domain.TripBid{
				ID:           uuid.New(),
				TripID:       tripID,
				LenderUserID: lender.UserID,
				Amount:       req.Terms.Amount,
				InterestRate: req.Terms.InterestRate,
				MaturityDays: req.Terms.MaturityDays,
				Status:       domain.BidStatusPending,
			}, nil
		},
	)

	body := dto.CreateBidRequest{BidTerms: dto.BidTerms{Amount: "45000", InterestRate: "10", MaturityDays: 30}}
	c, w := newContext(http.MethodPost, "/", body, lender, param("tripId", tripID))
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "369.86", data["total_interest"])
	assert.Equal(t, "45369.86", data["total_payable"])
	assert.NotEmpty(t, c.GetString(middleware.CtxAuditResource))
}

func TestRejectBid_OptionalBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)
	transporter := newActor(domain.RoleTransporter)
	bidID := uuid.New()

	bids.EXPECT().Reject(gomock.Any(), bidID, transporter.UserID, "").
		Return(&domain.TripBid{ID: bidID, Status: domain.BidStatusRejected}, nil)
	bids.EXPECT().Reject(gomock.Any(), bidID, transporter.UserID, "rate too high").
		Return(&domain.TripBid{ID: bidID, Status: domain.BidStatusRejected}, nil)

	c, w := newContext(http.MethodPost, "/", nil, transporter, param("id", bidID))
	h.Reject(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodPost, "/", dto.RejectBidRequest{Reason: " rate too high "}, transporter, param("id", bidID))
	h.Reject(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCounterBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)
	transporter := newActor(domain.RoleTransporter)
	bidID := uuid.New()

	bids.EXPECT().Counter(gomock.Any(), bidID, transporter.UserID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _ uuid.UUID, terms domain.BidTerms) (*domain.TripBid, error) {
			assert.Equal(t, "9.5", terms.InterestRate.String())
			return &domain.TripBid{ID: bidID, Status: domain.BidStatusCountered}, nil
		},
	)

	c, w := newContext(http.MethodPost, "/", dto.BidTerms{Amount: "40000", InterestRate: "9.5", MaturityDays: 45}, transporter, param("id", bidID))
	h.Counter(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COUNTERED", decodeData(t, w)["status"])
}

func TestAcceptBid_Expired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)
	bidID := uuid.New()

	bids.EXPECT().Accept(gomock.Any(), bidID, gomock.Any()).Return(nil, apperror.ErrBidExpired())

	c, w := newContext(http.MethodPost, "/", nil, newActor(domain.RoleTransporter), param("id", bidID))
	h.Accept(c)

	assert.Equal(t, "ST_002", errorCode(t, w))
}

func TestListMyBids(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)
	lender := newActor(domain.RoleLender)

	bids.EXPECT().ListByLender(gomock.Any(), lender.UserID).Return([]domain.TripBid{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/bids/mine", nil, lender)
	h.ListMine(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestExpireOverdue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bids := mocks.NewMockBidService(ctrl)
	h := NewBidHandler(bids)

	bids.EXPECT().ExpireOverdue(gomock.Any()).Return(int64(3), nil)

	c, w := newContext(http.MethodPost, "/", nil, newActor(domain.RoleAdmin))
	h.ExpireOverdue(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decodeData(t, w)["expired"])
}

// --- Proposal Handler Tests ---

func TestMarkInterest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proposals := mocks.NewMockProposalService(ctrl)
	h := NewProposalHandler(proposals)
	lender := newActor(domain.RoleLender)
	t1, t2 := uuid.New(), uuid.New()

	batch := &domain.InterestBatchResult{}
	batch.Add(domain.InterestResult{TripID: t1, Success: true, Outcome: domain.InterestCreated})
	batch.Add(domain.InterestResult{TripID: t2, Outcome: domain.InterestNoContract})
	proposals.EXPECT().MarkInterest(gomock.Any(), lender.UserID, []uuid.UUID{t1, t2}).Return(batch, nil)

	c, w := newContext(http.MethodPost, "/", dto.InterestRequest{TripIDs: []string{t1.String(), t2.String()}}, lender)
	h.MarkInterest(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["success_count"])
	assert.Equal(t, float64(1), data["failure_count"])
}

func TestMarkInterest_EmptyBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewProposalHandler(mocks.NewMockProposalService(ctrl))

	c, w := newContext(http.MethodPost, "/", `{"trip_ids":[]}`, newActor(domain.RoleLender))
	h.MarkInterest(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptProposal_AlreadyFinanced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proposals := mocks.NewMockProposalService(ctrl)
	h := NewProposalHandler(proposals)
	transporter := newActor(domain.RoleTransporter)
	id := uuid.New()

	proposals.EXPECT().Accept(gomock.Any(), id, transporter.UserID).Return(nil, apperror.ErrAlreadyFinanced())

	c, w := newContext(http.MethodPost, "/", nil, transporter, param("id", id))
	h.Accept(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CF_004", errorCode(t, w))
}

// --- Analytics Handler Tests ---

func TestLenderSummary_SelfOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analytics := mocks.NewMockAnalyticsService(ctrl)
	h := NewAnalyticsHandler(analytics)
	lender := newActor(domain.RoleLender)

	analytics.EXPECT().LenderSummary(gomock.Any(), lender.UserID).
		Return(&domain.LenderSummary{LenderID: lender.UserID, WalletBalance: decimal.RequireFromString("23500")}, nil)

	c, w := newContext(http.MethodGet, "/", nil, lender, param("id", lender.UserID))
	h.Lender(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "23500", decodeData(t, w)["wallet_balance"])

	c, w = newContext(http.MethodGet, "/", nil, newActor(domain.RoleTransporter), param("id", lender.UserID))
	h.Lender(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransporterSummary_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analytics := mocks.NewMockAnalyticsService(ctrl)
	h := NewAnalyticsHandler(analytics)
	id := uuid.New()

	analytics.EXPECT().TransporterSummary(gomock.Any(), id).Return(nil, apperror.InternalError(errors.New("boom")))

	c, w := newContext(http.MethodGet, "/", nil, newActor(domain.RoleAdmin), param("id", id))
	h.Transporter(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

// --- Health Check Test ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	pg.EXPECT().Name().Return("postgresql").AnyTimes()
	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(nil)
	rd.EXPECT().Name().Return("redis").AnyTimes()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(pg, rd)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp struct {
		Status       string                       `json:"status"`
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Dependencies["postgresql"]["status"])
	assert.Equal(t, "healthy", resp.Dependencies["redis"]["status"])
}

func TestSwaggerUI(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger", nil)

	SwaggerUI(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "swagger-ui")
	assert.Contains(t, w.Body.String(), "/swagger/spec")
}

func TestSwaggerSpec_Loaded(t *testing.T) {
	SetSwaggerSpec([]byte("openapi: '3.0.0'\ninfo:\n  title: Test"))
	defer SetSwaggerSpec(embeddedSpec)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi")
}

func TestSwaggerSpec_Embedded(t *testing.T) {
	SetSwaggerSpec(embeddedSpec)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trip Finance Ledger")
	assert.Contains(t, w.Body.String(), "/api/v1/bids/{id}/accept-counter:")
}

func TestSwaggerSpec_NotLoaded(t *testing.T) {
	SetSwaggerSpec(nil)
	defer SetSwaggerSpec(embeddedSpec)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/swagger/spec", nil)

	SwaggerSpec(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
