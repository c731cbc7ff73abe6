package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trip-finance-ledger/internal/core/domain"
	"trip-finance-ledger/internal/core/ports"
	"trip-finance-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// LedgerOptions tunes the transaction engine.
type LedgerOptions struct {
	DefaultCurrency string
	MaxDocumentSize int64 // bytes, 0 = unlimited
}

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	uow      ports.UnitOfWork
	store    ports.Store
	users    ports.UserDirectory
	docs     ports.ProofDocumentStore
	notifier ports.Notifier
	audit    ports.AuditService
	opts     LedgerOptions
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
// docs may be nil, in which case proof documents are stored inline.
func NewLedgerService(
	uow ports.UnitOfWork,
	store ports.Store,
	users ports.UserDirectory,
	docs ports.ProofDocumentStore,
	notifier ports.Notifier,
	audit ports.AuditService,
	opts LedgerOptions,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "INR"
	}
	return &LedgerServiceImpl{
		uow:      uow,
		store:    store,
		users:    users,
		docs:     docs,
		notifier: notifier,
		audit:    audit,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateWallet opens the single wallet of an existing user.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.opts.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, apperror.Validation("currency must be a 3-letter ISO code")
	}

	user, err := s.users.FindUserByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	now := s.now()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Currency:  currency,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		existing, err := st.Wallets().GetByUserID(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("lookup wallet: %w", err)
		}
		if existing != nil {
			return apperror.ErrWalletExists()
		}
		if err := st.Wallets().Create(ctx, wallet); err != nil {
			if errors.Is(err, ports.ErrUniqueViolation) {
				return apperror.ErrWalletExists()
			}
			return fmt.Errorf("create wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate("create wallet", err)
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", wallet.UserID.String()).
		Str("currency", wallet.Currency).
		Msg("wallet created")

	s.record(ctx, req.Actor, domain.AuditActionCreateWallet, "wallet", wallet.ID, map[string]any{
		"user_id":  wallet.UserID,
		"currency": wallet.Currency,
	})
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventWalletCreated, "wallet", wallet.ID, req.Actor, map[string]any{
		"user_id":  wallet.UserID,
		"currency": wallet.Currency,
	}))

	return wallet, nil
}

// GetWallet returns the wallet owned by userID.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return w, nil
}

// GetBalance returns the wallet's balance from the materialized head.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (*ports.WalletBalanceView, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.store.Ledger().CurrentBalance(ctx, w.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	return &ports.WalletBalanceView{
		WalletID: w.ID,
		UserID:   w.UserID,
		Currency: w.Currency,
		Balance:  balance,
		Status:   string(w.Status),
	}, nil
}

// Credit adds money to a wallet from outside the platform.
func (s *LedgerServiceImpl) Credit(ctx context.Context, req ports.MovementRequest) (*domain.TransactionResult, error) {
	return s.move(ctx, req, domain.EntryTypeCredit)
}

// Debit removes money from a wallet. The balance may go negative; the shortfall is
// recorded as borrowing in the description.
func (s *LedgerServiceImpl) Debit(ctx context.Context, req ports.MovementRequest) (*domain.TransactionResult, error) {
	return s.move(ctx, req, domain.EntryTypeDebit)
}

func (s *LedgerServiceImpl) move(ctx context.Context, req ports.MovementRequest, entryType domain.EntryType) (*domain.TransactionResult, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	txnType, reqType := domain.TransactionTypeManualCredit, domain.RequestTypeCredit
	action, event := domain.AuditActionCredit, domain.EventWalletCredited
	if entryType == domain.EntryTypeDebit {
		txnType, reqType = domain.TransactionTypeManualDebit, domain.RequestTypeDebit
		action, event = domain.AuditActionDebit, domain.EventWalletDebited
	}

	txnID := uuid.New()
	doc, err := s.prepareDocument(ctx, txnID, req.Meta.Document)
	if err != nil {
		return nil, err
	}

	var result *domain.TransactionResult
	var wallet domain.Wallet
	err = s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		wallets, err := lockWallets(ctx, st, req.UserID)
		if err != nil {
			return err
		}
		w, ok := wallets[req.UserID]
		if !ok {
			return apperror.ErrNotFound("wallet")
		}
		if !w.IsUsable() {
			return apperror.ErrWalletUnavailable(string(w.Status))
		}
		wallet = w

		balance, err := st.Ledger().CurrentBalance(ctx, w.ID)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}

		now := s.now()
		borrowed := decimal.Zero
		description := req.Meta.Description
		after := balance.Add(req.Amount)
		mreq := newManualRequest(txnID, reqType, req.Amount, req.Meta, now)
		owner := req.UserID
		if entryType == domain.EntryTypeDebit {
			borrowed = domain.BorrowingAmount(balance, req.Amount)
			description = annotateBorrowing(description, borrowed, w.Currency)
			after = balance.Sub(req.Amount)
			mreq.FromUserID = &owner
		} else {
			mreq.ToUserID = &owner
		}

		entries := []domain.TransactionEntry{{
			TransactionID: txnID,
			WalletID:      w.ID,
			EntryType:     entryType,
			Amount:        req.Amount,
			BalanceAfter:  after,
			Sequence:      1,
			CreatedAt:     now,
		}}

		result, err = persistMovement(ctx, st, newTransaction(txnID, txnType, description, req.Meta, now), entries, mreq, doc)
		if err != nil {
			return err
		}
		result.Borrowed = borrowed
		return nil
	})
	if err != nil {
		return nil, translate(strings.ToLower(string(txnType)), err)
	}

	entry := result.Entries[0]
	s.log.Info().
		Str("tx_id", txnID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("type", string(txnType)).
		Str("amount", req.Amount.StringFixed(domain.MoneyScale)).
		Str("balance_after", entry.BalanceAfter.StringFixed(domain.MoneyScale)).
		Msg("ledger movement completed")

	data := map[string]any{
		"transaction_id": txnID,
		"user_id":        req.UserID,
		"amount":         req.Amount.StringFixed(domain.MoneyScale),
		"currency":       wallet.Currency,
		"balance_after":  entry.BalanceAfter.StringFixed(domain.MoneyScale),
	}
	if result.Borrowed.IsPositive() {
		data["borrowed"] = result.Borrowed.StringFixed(domain.MoneyScale)
	}
	s.record(ctx, req.Meta.EnteredBy, action, "transaction", txnID, data)
	s.notifier.Notify(ctx, domain.NewEvent(event, "transaction", txnID, req.Meta.EnteredBy, data))

	return result, nil
}

// Transfer moves money between two wallets of the same currency in one transaction:
// DEBIT (sequence 1) on the source, CREDIT (sequence 2) on the destination.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.TransactionResult, error) {
	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.FromUserID == req.ToUserID {
		return nil, apperror.ErrInvalidTransaction("Cannot transfer to the same wallet")
	}

	txnID := uuid.New()
	doc, err := s.prepareDocument(ctx, txnID, req.Meta.Document)
	if err != nil {
		return nil, err
	}

	var result *domain.TransactionResult
	var currency string
	err = s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		wallets, err := lockWallets(ctx, st, req.FromUserID, req.ToUserID)
		if err != nil {
			return err
		}
		src, ok := wallets[req.FromUserID]
		if !ok {
			return apperror.ErrNotFound("source wallet")
		}
		dst, ok := wallets[req.ToUserID]
		if !ok {
			return apperror.ErrNotFound("destination wallet")
		}
		if !src.IsUsable() {
			return apperror.ErrWalletUnavailable(string(src.Status))
		}
		if !dst.IsUsable() {
			return apperror.ErrWalletUnavailable(string(dst.Status))
		}
		if src.Currency != dst.Currency {
			return apperror.ErrCurrencyMismatch(src.Currency, dst.Currency)
		}
		currency = src.Currency

		srcBalance, err := st.Ledger().CurrentBalance(ctx, src.ID)
		if err != nil {
			return fmt.Errorf("read source balance: %w", err)
		}
		dstBalance, err := st.Ledger().CurrentBalance(ctx, dst.ID)
		if err != nil {
			return fmt.Errorf("read destination balance: %w", err)
		}

		now := s.now()
		borrowed := domain.BorrowingAmount(srcBalance, req.Amount)
		description := annotateBorrowing(req.Meta.Description, borrowed, currency)

		entries := []domain.TransactionEntry{
			{
				TransactionID: txnID,
				WalletID:      src.ID,
				EntryType:     domain.EntryTypeDebit,
				Amount:        req.Amount,
				BalanceAfter:  srcBalance.Sub(req.Amount),
				Sequence:      1,
				CreatedAt:     now,
			},
			{
				TransactionID: txnID,
				WalletID:      dst.ID,
				EntryType:     domain.EntryTypeCredit,
				Amount:        req.Amount,
				BalanceAfter:  dstBalance.Add(req.Amount),
				Sequence:      2,
				CreatedAt:     now,
			},
		}

		from, to := req.FromUserID, req.ToUserID
		mreq := newManualRequest(txnID, domain.RequestTypeTransfer, req.Amount, req.Meta, now)
		mreq.FromUserID = &from
		mreq.ToUserID = &to

		result, err = persistMovement(ctx, st, newTransaction(txnID, domain.TransactionTypeTransfer, description, req.Meta, now), entries, mreq, doc)
		if err != nil {
			return err
		}
		result.Borrowed = borrowed
		return nil
	})
	if err != nil {
		return nil, translate("transfer", err)
	}

	s.log.Info().
		Str("tx_id", txnID.String()).
		Str("from_user_id", req.FromUserID.String()).
		Str("to_user_id", req.ToUserID.String()).
		Str("amount", req.Amount.StringFixed(domain.MoneyScale)).
		Msg("transfer completed")

	data := map[string]any{
		"transaction_id": txnID,
		"from_user_id":   req.FromUserID,
		"to_user_id":     req.ToUserID,
		"amount":         req.Amount.StringFixed(domain.MoneyScale),
		"currency":       currency,
	}
	if result.Borrowed.IsPositive() {
		data["borrowed"] = result.Borrowed.StringFixed(domain.MoneyScale)
	}
	s.record(ctx, req.Meta.EnteredBy, domain.AuditActionTransfer, "transaction", txnID, data)
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventWalletTransfer, "transaction", txnID, req.Meta.EnteredBy, data))

	return result, nil
}

// GetStatement returns the wallet's entries within [from, to], newest first.
func (s *LedgerServiceImpl) GetStatement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.Statement, error) {
	if to.Before(from) {
		return nil, apperror.Validation("statement 'to' must not be before 'from'")
	}
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Ledger().Statement(ctx, w.ID, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("statement: %w", err))
	}
	opening, err := s.store.Ledger().BalanceAsOf(ctx, w.ID, from)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("opening balance: %w", err))
	}
	st := domain.NewStatement(w.ID, from, to, entries, opening)
	return &st, nil
}

// GetHistory returns one page of the wallet's entries, newest first, with the total count.
func (s *LedgerServiceImpl) GetHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.HistoryItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.Ledger().History(ctx, w.ID, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("history: %w", err))
	}
	if items == nil {
		items = []domain.HistoryItem{}
	}
	return items, total, nil
}

// GetTransaction returns a transaction with its entries, manual request and documents.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error) {
	txn, err := s.store.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	entries, err := s.store.Ledger().EntriesByTransaction(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction entries: %w", err))
	}
	mreq, err := s.store.Transactions().GetManualRequest(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("manual request: %w", err))
	}
	docs, err := s.store.Transactions().ListDocuments(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("documents: %w", err))
	}
	if docs == nil {
		docs = []domain.TransactionDocument{}
	}
	return &domain.TransactionDetail{
		Transaction: *txn,
		Entries:     entries,
		Request:     mreq,
		Documents:   docs,
	}, nil
}

// VerifyBalance compares the materialized head with a full fold over the wallet's entries.
func (s *LedgerServiceImpl) VerifyBalance(ctx context.Context, userID uuid.UUID) (*domain.BalanceCheck, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	head, err := s.store.Ledger().CurrentBalance(ctx, w.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("head balance: %w", err))
	}
	folded, count, err := s.store.Ledger().FoldBalance(ctx, w.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fold balance: %w", err))
	}

	check := &domain.BalanceCheck{WalletID: w.ID, Head: head, Folded: folded, Entries: count}
	if !check.Consistent() {
		s.log.Error().
			Str("wallet_id", w.ID.String()).
			Str("head", head.String()).
			Str("folded", folded.String()).
			Msg("balance head diverged from ledger")
	}
	return check, nil
}

// Suspend blocks money movement on an active wallet.
func (s *LedgerServiceImpl) Suspend(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error) {
	return s.changeStatus(ctx, userID, actor, domain.WalletStatusSuspended, domain.AuditActionSuspendWallet)
}

// Activate re-enables a suspended wallet.
func (s *LedgerServiceImpl) Activate(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error) {
	return s.changeStatus(ctx, userID, actor, domain.WalletStatusActive, domain.AuditActionActivateWallet)
}

// Close permanently retires a wallet. Its ledger stays readable.
func (s *LedgerServiceImpl) Close(ctx context.Context, userID, actor uuid.UUID) (*domain.Wallet, error) {
	return s.changeStatus(ctx, userID, actor, domain.WalletStatusClosed, domain.AuditActionCloseWallet)
}

func (s *LedgerServiceImpl) changeStatus(ctx context.Context, userID, actor uuid.UUID, next domain.WalletStatus, action domain.AuditAction) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var previous domain.WalletStatus
	err := s.uow.Do(ctx, ports.ReadCommitted, func(ctx context.Context, st ports.Store) error {
		wallets, err := lockWallets(ctx, st, userID)
		if err != nil {
			return err
		}
		w, ok := wallets[userID]
		if !ok {
			return apperror.ErrNotFound("wallet")
		}
		if !w.CanTransitionTo(next) {
			return apperror.ErrInvalidState("wallet", string(w.Status), walletSourcesFor(next)...)
		}
		now := s.now()
		if err := st.Wallets().UpdateStatus(ctx, w.ID, next, now); err != nil {
			return fmt.Errorf("update wallet status: %w", err)
		}
		previous = w.Status
		w.Status = next
		w.UpdatedAt = now
		wallet = w
		return nil
	})
	if err != nil {
		return nil, translate("change wallet status", err)
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("wallet status changed")

	data := map[string]any{"from": previous, "to": next, "user_id": userID}
	s.record(ctx, actor, action, "wallet", wallet.ID, data)
	s.notifier.Notify(ctx, domain.NewEvent(domain.EventWalletStatusChanged, "wallet", wallet.ID, actor, data))

	return &wallet, nil
}

// prepareDocument checksums a proof document and, when a blob store is configured,
// uploads it before the unit of work starts so the row never points at a missing object.
func (s *LedgerServiceImpl) prepareDocument(ctx context.Context, txnID uuid.UUID, upload *ports.DocumentUpload) (*domain.TransactionDocument, error) {
	if upload == nil {
		return nil, nil
	}
	size := int64(len(upload.Content))
	if size == 0 {
		return nil, apperror.Validation("document is empty")
	}
	if s.opts.MaxDocumentSize > 0 && size > s.opts.MaxDocumentSize {
		return nil, apperror.Validation(fmt.Sprintf("document exceeds %d bytes", s.opts.MaxDocumentSize))
	}

	sum := blake2b.Sum256(upload.Content)
	doc := &domain.TransactionDocument{
		ID:            uuid.New(),
		TransactionID: txnID,
		FileName:      upload.FileName,
		MimeType:      upload.MimeType,
		Size:          size,
		Checksum:      hex.EncodeToString(sum[:]),
		UploadedAt:    s.now(),
	}

	if s.docs == nil {
		doc.Content = upload.Content
		return doc, nil
	}

	doc.StorageKey = fmt.Sprintf("transactions/%s/%s", txnID, doc.ID)
	if err := s.docs.Put(ctx, doc.StorageKey, upload.MimeType, upload.Content); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store document: %w", err))
	}
	return doc, nil
}

func (s *LedgerServiceImpl) record(ctx context.Context, actor uuid.UUID, action domain.AuditAction, resourceType string, resourceID uuid.UUID, details map[string]any) {
	s.audit.Log(ctx, newAuditLog(ctx, actor, action, resourceType, resourceID, details))
}

// lockWallets row-locks the wallets of userIDs in ascending user id order and indexes
// them by user id.
func lockWallets(ctx context.Context, st ports.Store, userIDs ...uuid.UUID) (map[uuid.UUID]domain.Wallet, error) {
	locked, err := st.Wallets().LockByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	out := make(map[uuid.UUID]domain.Wallet, len(locked))
	for _, w := range locked {
		out[w.UserID] = w
	}
	return out, nil
}

func persistMovement(
	ctx context.Context,
	st ports.Store,
	txn *domain.Transaction,
	entries []domain.TransactionEntry,
	mreq *domain.ManualTransferRequest,
	doc *domain.TransactionDocument,
) (*domain.TransactionResult, error) {
	if err := st.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	for i := range entries {
		if err := st.Ledger().AppendEntry(ctx, &entries[i]); err != nil {
			return nil, fmt.Errorf("append entry %d: %w", entries[i].Sequence, err)
		}
	}
	if err := st.Transactions().CreateManualRequest(ctx, mreq); err != nil {
		return nil, fmt.Errorf("create manual request: %w", err)
	}
	if doc != nil {
		if err := st.Transactions().AddDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("add document: %w", err)
		}
	}
	return &domain.TransactionResult{
		Transaction: *txn,
		Entries:     entries,
		Request:     mreq,
		Document:    doc,
	}, nil
}

func newTransaction(id uuid.UUID, typ domain.TransactionType, description string, meta ports.MovementMeta, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:                 id,
		Type:               typ,
		Status:             domain.TransactionStatusCompleted,
		Description:        description,
		CreatedBy:          meta.EnteredBy,
		CreatedAt:          now,
		CompletedAt:        now,
		ActualTransferDate: meta.ActualTransferDate,
		TripID:             meta.TripID,
		ContractID:         meta.ContractID,
	}
}

func newManualRequest(txnID uuid.UUID, typ domain.RequestType, amount decimal.Decimal, meta ports.MovementMeta, now time.Time) *domain.ManualTransferRequest {
	return &domain.ManualTransferRequest{
		ID:              uuid.New(),
		TransactionID:   txnID,
		RequestType:     typ,
		Amount:          amount,
		PaymentMethod:   meta.PaymentMethod,
		ReferenceNumber: meta.ReferenceNumber,
		Remarks:         meta.Remarks,
		EnteredBy:       meta.EnteredBy,
		EnteredAt:       now,
	}
}

// annotateBorrowing appends "borrowing of <amount> <currency>" when borrowed is positive.
func annotateBorrowing(description string, borrowed decimal.Decimal, currency string) string {
	if !borrowed.IsPositive() {
		return description
	}
	note := "borrowing of " + domain.FormatMoney(borrowed, currency)
	if description == "" {
		return note
	}
	return description + " (" + note + ")"
}

// walletSourcesFor lists the statuses from which a wallet may move to next.
func walletSourcesFor(next domain.WalletStatus) []string {
	var out []string
	for _, from := range []domain.WalletStatus{domain.WalletStatusActive, domain.WalletStatusSuspended} {
		w := domain.Wallet{Status: from}
		if w.CanTransitionTo(next) {
			out = append(out, string(from))
		}
	}
	return out
}

func marshalDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	b, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(b)
}
