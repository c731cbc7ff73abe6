package handler

import (
	"context"
	"encoding/base64"
	"time"

	"trip-finance-ledger/internal/adapter/http/dto"
	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"
	"trip-finance-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout             = "2006-01-02"
	defaultStatementWindow = 30 * 24 * time.Hour
)

// WalletHandler handles wallet, transfer and transaction endpoints.
type WalletHandler struct {
	ledger ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateWalletRequest
	if !bind(c, &req) {
		return
	}

	wallet, err := h.ledger.CreateWallet(c.Request.Context(), ports.CreateWalletRequest{
		UserID:   uuid.MustParse(req.UserID),
		Currency: req.Currency,
		Actor:    a.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wallet)
}

// Credit handles POST /api/v1/wallets/:userId/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	h.movement(c, h.ledger.Credit)
}

// Debit handles POST /api/v1/wallets/:userId/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	h.movement(c, h.ledger.Debit)
}

func (h *WalletHandler) movement(c *gin.Context, apply func(ctx context.Context, req ports.MovementRequest) (*domain.TransactionResult, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bind(c, &req) {
		return
	}
	meta, err := movementMeta(req.MovementFields, a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := apply(c.Request.Context(), ports.MovementRequest{
		UserID: userID,
		Amount: decimal.RequireFromString(req.Amount),
		Meta:   meta,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Transfer handles POST /api/v1/transfers.
func (h *WalletHandler) Transfer(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bind(c, &req) {
		return
	}
	meta, err := movementMeta(req.MovementFields, a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), ports.TransferRequest{
		FromUserID: uuid.MustParse(req.FromUserID),
		ToUserID:   uuid.MustParse(req.ToUserID),
		Amount:     decimal.RequireFromString(req.Amount),
		Meta:       meta,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Suspend handles POST /api/v1/wallets/:userId/suspend.
func (h *WalletHandler) Suspend(c *gin.Context) {
	h.changeStatus(c, h.ledger.Suspend)
}

// Activate handles POST /api/v1/wallets/:userId/activate.
func (h *WalletHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.ledger.Activate)
}

// Close handles POST /api/v1/wallets/:userId/close.
func (h *WalletHandler) Close(c *gin.Context) {
	h.changeStatus(c, h.ledger.Close)
}

func (h *WalletHandler) changeStatus(c *gin.Context, apply func(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	wallet, err := apply(c.Request.Context(), userID, a.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

// Verify handles GET /api/v1/wallets/:userId/verify.
func (h *WalletHandler) Verify(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	check, err := h.ledger.VerifyBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"wallet_id":      check.WalletID,
		"head_balance":   check.Head,
		"folded_balance": check.Folded,
		"entries":        check.Entries,
		"consistent":     check.Consistent(),
	})
}

// GetWallet handles GET /api/v1/wallets/:userId.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := h.ownedUser(c)
	if !ok {
		return
	}
	wallet, err := h.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, wallet)
}

// GetBalance handles GET /api/v1/wallets/:userId/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := h.ownedUser(c)
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, balance)
}

// GetStatement handles GET /api/v1/wallets/:userId/statement?from=&to=.
// Both bounds accept RFC 3339 or a plain date; a plain "to" date covers the whole day.
// The window defaults to the last 30 days.
func (h *WalletHandler) GetStatement(c *gin.Context) {
	userID, ok := h.ownedUser(c)
	if !ok {
		return
	}

	to := time.Now().UTC()
	if raw := c.Query("to"); raw != "" {
		t, dateOnly, err := parseBound(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid to: "+raw))
			return
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = t
	}
	from := to.Add(-defaultStatementWindow)
	if raw := c.Query("from"); raw != "" {
		t, _, err := parseBound(raw)
		if err != nil {
			response.Error(c, apperror.Validation("invalid from: "+raw))
			return
		}
		from = t
	}

	statement, err := h.ledger.GetStatement(c.Request.Context(), userID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, statement)
}

// GetHistory handles GET /api/v1/wallets/:userId/history?page=&page_size=.
func (h *WalletHandler) GetHistory(c *gin.Context) {
	userID, ok := h.ownedUser(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	items, total, err := h.ledger.GetHistory(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, items, total, page, pageSize)
}

// GetTransaction handles GET /api/v1/transactions/:id. Non-admins only see
// transactions that touched their own wallet.
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.ledger.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !a.IsAdmin() && !h.touchesWalletOf(c, detail, a.UserID) {
		response.Error(c, apperror.ErrForbidden("transaction"))
		return
	}
	response.OK(c, detail)
}

func (h *WalletHandler) touchesWalletOf(c *gin.Context, detail *domain.TransactionDetail, userID uuid.UUID) bool {
	wallet, err := h.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	for _, e := range detail.Entries {
		if e.WalletID == wallet.ID {
			return true
		}
	}
	return false
}

func (h *WalletHandler) ownedUser(c *gin.Context) (uuid.UUID, bool) {
	a, ok := actor(c)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return uuid.Nil, false
	}
	if !selfOrAdmin(c, a, userID, "wallet") {
		return uuid.Nil, false
	}
	return userID, true
}

func movementMeta(f dto.MovementFields, enteredBy uuid.UUID) (ports.MovementMeta, error) {
	meta := ports.MovementMeta{
		Description:        f.Description,
		PaymentMethod:      f.PaymentMethod,
		ReferenceNumber:    f.ReferenceNumber,
		Remarks:            f.Remarks,
		ActualTransferDate: f.ActualTransferDate,
		TripID:             optionalUUID(f.TripID),
		ContractID:         optionalUUID(f.ContractID),
		EnteredBy:          enteredBy,
	}
	if f.Document != nil {
		content, err := base64.StdEncoding.DecodeString(f.Document.Content)
		if err != nil {
			return meta, apperror.Validation("document content is not valid base64")
		}
		meta.Document = &ports.DocumentUpload{
			FileName: f.Document.FileName,
			MimeType: f.Document.MimeType,
			Content:  content,
		}
	}
	return meta, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(dateLayout, raw)
	return t, true, err
}
