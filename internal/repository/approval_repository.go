package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-approvals/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrApprovalNotFound       = errors.New("approval queue entry not found")
	ErrApprovalAlreadyPending = errors.New("product already has a pending approval")
)

// ApprovalRepository defines the interface for approval queue data access.
// Entries are inserted when a mutation is deferred and deleted when the
// decision is resolved; they are never updated in place.
type ApprovalRepository interface {
	Create(ctx context.Context, q DBTX, entry *domain.ApprovalQueue) error
	Delete(ctx context.Context, q DBTX, id int64) error
	FindByID(ctx context.Context, q DBTX, id int64) (*domain.PendingApproval, error)
	ListOpen(ctx context.Context, q DBTX) ([]domain.PendingApproval, error)
}

type approvalRepository struct{}

// NewApprovalRepository creates a new instance of ApprovalRepository
func NewApprovalRepository() ApprovalRepository {
	return &approvalRepository{}
}

// Create inserts a queue entry and fills in its store-assigned id. The unique
// constraint on product_id guarantees at most one open entry per product;
// a violation surfaces as ErrApprovalAlreadyPending.
func (r *approvalRepository) Create(ctx context.Context, q DBTX, entry *domain.ApprovalQueue) error {
	query := `
		INSERT INTO approval_queues (product_id, change_type, request_reason, request_date, original_price, original_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := q.QueryRowContext(
		ctx,
		query,
		entry.ProductID,
		entry.ChangeType,
		entry.RequestReason,
		entry.RequestDate,
		entry.OriginalPrice,
		entry.OriginalStatus,
	).Scan(&entry.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrApprovalAlreadyPending
		}
		return fmt.Errorf("failed to create approval queue entry: %w", err)
	}

	return nil
}

// Delete removes a queue entry by id
func (r *approvalRepository) Delete(ctx context.Context, q DBTX, id int64) error {
	query := `DELETE FROM approval_queues WHERE id = $1`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete approval queue entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrApprovalNotFound
	}

	return nil
}

// FindByID retrieves a queue entry together with the product it references
func (r *approvalRepository) FindByID(ctx context.Context, q DBTX, id int64) (*domain.PendingApproval, error) {
	query := `
		SELECT a.id, a.product_id, a.change_type, a.request_reason, a.request_date, a.original_price, a.original_status,
		       p.id, p.name, p.price, p.posted_date, p.is_active, p.status
		FROM approval_queues a
		JOIN product_details p ON p.id = a.product_id
		WHERE a.id = $1
	`

	pending := &domain.PendingApproval{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&pending.Entry.ID,
		&pending.Entry.ProductID,
		&pending.Entry.ChangeType,
		&pending.Entry.RequestReason,
		&pending.Entry.RequestDate,
		&pending.Entry.OriginalPrice,
		&pending.Entry.OriginalStatus,
		&pending.Product.ID,
		&pending.Product.Name,
		&pending.Product.Price,
		&pending.Product.PostedDate,
		&pending.Product.IsActive,
		&pending.Product.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("failed to find approval queue entry: %w", err)
	}

	return pending, nil
}

// ListOpen retrieves all open queue entries with their products, oldest
// request first so reviewers work in FIFO order.
func (r *approvalRepository) ListOpen(ctx context.Context, q DBTX) ([]domain.PendingApproval, error) {
	query := `
		SELECT a.id, a.product_id, a.change_type, a.request_reason, a.request_date, a.original_price, a.original_status,
		       p.id, p.name, p.price, p.posted_date, p.is_active, p.status
		FROM approval_queues a
		JOIN product_details p ON p.id = a.product_id
		ORDER BY a.request_date ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval queue: %w", err)
	}
	defer rows.Close()

	approvals := []domain.PendingApproval{}
	for rows.Next() {
		pending := domain.PendingApproval{}
		err := rows.Scan(
			&pending.Entry.ID,
			&pending.Entry.ProductID,
			&pending.Entry.ChangeType,
			&pending.Entry.RequestReason,
			&pending.Entry.RequestDate,
			&pending.Entry.OriginalPrice,
			&pending.Entry.OriginalStatus,
			&pending.Product.ID,
			&pending.Product.Name,
			&pending.Product.Price,
			&pending.Product.PostedDate,
			&pending.Product.IsActive,
			&pending.Product.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval queue entry: %w", err)
		}
		approvals = append(approvals, pending)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval queue: %w", err)
	}

	return approvals, nil
}
