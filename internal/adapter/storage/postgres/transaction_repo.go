package postgres

import (
	"context"
	"errors"
	"fmt"

	"trip-finance-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	db DBTX
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(db DBTX) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Create inserts a new transaction.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, type, status, description, created_by, created_at, completed_at,
		actual_transfer_date, trip_id, contract_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		t.ID, t.Type, t.Status, t.Description, t.CreatedBy, t.CreatedAt, t.CompletedAt,
		t.ActualTransferDate, t.TripID, t.ContractID,
	)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT id, type, status, description, created_by, created_at, completed_at,
		actual_transfer_date, trip_id, contract_id
		FROM transactions WHERE id = $1`

	t := &domain.Transaction{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Type, &t.Status, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.CompletedAt,
		&t.ActualTransferDate, &t.TripID, &t.ContractID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// CreateManualRequest records the manual-entry metadata of a transaction.
func (r *TransactionRepo) CreateManualRequest(ctx context.Context, m *domain.ManualTransferRequest) error {
	query := `INSERT INTO manual_transfer_requests (id, transaction_id, request_type, from_user_id, to_user_id,
		amount, payment_method, reference_number, remarks, entered_by, entered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		m.ID, m.TransactionID, m.RequestType, m.FromUserID, m.ToUserID,
		m.Amount, m.PaymentMethod, m.ReferenceNumber, m.Remarks, m.EnteredBy, m.EnteredAt,
	)
	if err != nil {
		return wrapErr("insert manual transfer request", err)
	}
	return nil
}

// GetManualRequest fetches the manual-entry metadata of a transaction.
func (r *TransactionRepo) GetManualRequest(ctx context.Context, transactionID uuid.UUID) (*domain.ManualTransferRequest, error) {
	query := `SELECT id, transaction_id, request_type, from_user_id, to_user_id, amount::text,
		payment_method, reference_number, remarks, entered_by, entered_at
		FROM manual_transfer_requests WHERE transaction_id = $1`

	m := &domain.ManualTransferRequest{}
	var amount string
	err := r.db.QueryRow(ctx, query, transactionID).Scan(
		&m.ID, &m.TransactionID, &m.RequestType, &m.FromUserID, &m.ToUserID, &amount,
		&m.PaymentMethod, &m.ReferenceNumber, &m.Remarks, &m.EnteredBy, &m.EnteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manual transfer request: %w", err)
	}
	if m.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return m, nil
}

// AddDocument attaches a proof document. Content is NULL when the blob lives in object storage.
func (r *TransactionRepo) AddDocument(ctx context.Context, d *domain.TransactionDocument) error {
	query := `INSERT INTO transaction_documents (id, transaction_id, file_name, mime_type, size_bytes,
		checksum, storage_key, content, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		d.ID, d.TransactionID, d.FileName, d.MimeType, d.Size,
		d.Checksum, d.StorageKey, d.Content, d.UploadedAt,
	)
	if err != nil {
		return wrapErr("insert transaction document", err)
	}
	return nil
}

// ListDocuments returns a transaction's documents, oldest first.
func (r *TransactionRepo) ListDocuments(ctx context.Context, transactionID uuid.UUID) ([]domain.TransactionDocument, error) {
	query := `SELECT id, transaction_id, file_name, mime_type, size_bytes, checksum, storage_key, content, uploaded_at
		FROM transaction_documents WHERE transaction_id = $1 ORDER BY uploaded_at, id`

	rows, err := r.db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.TransactionDocument{}
	for rows.Next() {
		d := domain.TransactionDocument{}
		if err := rows.Scan(&d.ID, &d.TransactionID, &d.FileName, &d.MimeType, &d.Size,
			&d.Checksum, &d.StorageKey, &d.Content, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}
