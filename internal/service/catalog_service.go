package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-approvals/internal/domain"
	"catalog-approvals/internal/repository"

	"go.uber.org/zap"
)

const (
	// MaxProductPrice is the hard business cap on a creation price. Prices
	// above it are rejected outright, never queued for approval.
	MaxProductPrice = 10000.0

	// CreateApprovalThreshold is the creation price above which a new
	// product is parked in the approval queue instead of going live.
	CreateApprovalThreshold = 5000.0

	// UpdateApprovalFactor is the price-increase factor above which an
	// update is deferred: newPrice > 1.5 x currentPrice means a >50% raise.
	UpdateApprovalFactor = 1.5
)

const (
	createApprovalReason = "Price exceeds $5,000"
	updateApprovalReason = "Price increase > 50%"
)

var (
	ErrInvalidPrice    = errors.New("product price cannot exceed $10,000")
	ErrInactiveProduct = errors.New("cannot update the price of an inactive product")
)

// CatalogService is the approval workflow engine. It owns the rules for when
// a mutation is applied immediately versus deferred into the approval queue,
// and the approve/reject transitions that commit or roll back a deferred
// mutation. Every mutating operation runs in a single transaction.
type CatalogService interface {
	CreateProduct(ctx context.Context, name string, price float64) (*domain.ProductDetail, error)
	UpdatePrice(ctx context.Context, id int64, newPrice float64) error
	ListApprovals(ctx context.Context) ([]domain.PendingApproval, error)
	ResolveApproval(ctx context.Context, id int64, approved bool) error
	QueryProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductDetail, error)
}

type catalogService struct {
	tx        repository.TxRunner
	db        repository.DBTX
	products  repository.ProductRepository
	approvals repository.ApprovalRepository
	logger    *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService. db is the pool
// handle used for read-only operations; tx brackets the mutating ones.
func NewCatalogService(
	tx repository.TxRunner,
	db repository.DBTX,
	products repository.ProductRepository,
	approvals repository.ApprovalRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		tx:        tx,
		db:        db,
		products:  products,
		approvals: approvals,
		logger:    logger,
	}
}

// CreateProduct inserts a new catalog entry. Products priced above the
// approval threshold start inactive with an open queue entry; cheaper ones
// go live immediately.
func (s *catalogService) CreateProduct(ctx context.Context, name string, price float64) (*domain.ProductDetail, error) {
	if price > MaxProductPrice {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	requiresApproval := price > CreateApprovalThreshold

	product := &domain.ProductDetail{
		Name:       name,
		Price:      price,
		PostedDate: now,
		IsActive:   !requiresApproval,
		Status:     domain.ChangeCreate,
	}

	err := s.tx.RunInTx(ctx, func(q repository.DBTX) error {
		if err := s.products.Create(ctx, q, product); err != nil {
			return err
		}

		if requiresApproval {
			entry := &domain.ApprovalQueue{
				ProductID:     product.ID,
				ChangeType:    domain.ChangeCreate,
				RequestReason: createApprovalReason,
				RequestDate:   now,
			}
			if err := s.approvals.Create(ctx, q, entry); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Float64("price", price),
		zap.Bool("pending_approval", requiresApproval),
	)

	return product, nil
}

// UpdatePrice applies a price change to an active product. An increase of
// more than 50% is deferred: the new price is written to the row immediately,
// but the product is deactivated and a queue entry snapshots the previous
// price and status for rollback on rejection.
func (s *catalogService) UpdatePrice(ctx context.Context, id int64, newPrice float64) error {
	err := s.tx.RunInTx(ctx, func(q repository.DBTX) error {
		product, err := s.products.FindByID(ctx, q, id)
		if err != nil {
			return err
		}

		if !product.IsActive {
			// One mutation in flight per product: inactive means a
			// pending approval already holds the lock.
			return ErrInactiveProduct
		}

		if newPrice > product.Price*UpdateApprovalFactor {
			originalPrice := product.Price
			originalStatus := product.Status
			entry := &domain.ApprovalQueue{
				ProductID:      product.ID,
				ChangeType:     domain.ChangeUpdate,
				RequestReason:  updateApprovalReason,
				RequestDate:    time.Now().UTC(),
				OriginalPrice:  &originalPrice,
				OriginalStatus: &originalStatus,
			}
			if err := s.approvals.Create(ctx, q, entry); err != nil {
				return err
			}
			product.IsActive = false
		}

		product.Price = newPrice
		product.Status = domain.ChangeUpdate

		return s.products.Update(ctx, q, product)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, ErrInactiveProduct) {
			return err
		}
		return fmt.Errorf("failed to update price: %w", err)
	}

	s.logger.Info("Product price updated",
		zap.Int64("product_id", id),
		zap.Float64("new_price", newPrice),
	)

	return nil
}

// ListApprovals returns all open queue entries with their products, oldest
// request first.
func (s *catalogService) ListApprovals(ctx context.Context) ([]domain.PendingApproval, error) {
	approvals, err := s.approvals.ListOpen(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	return approvals, nil
}

// ResolveApproval applies an approve/reject decision to a queued entry and
// deletes the entry. The transition is keyed by the change kind recorded on
// the entry:
//
//	Create  approve: activate      reject: delete product
//	Update  approve: activate      reject: restore snapshot, activate
//	Delete  approve: delete        reject: activate
//
// No surface currently enqueues a Delete entry; the branch is kept because
// deletion requests share the same resolution contract.
func (s *catalogService) ResolveApproval(ctx context.Context, id int64, approved bool) error {
	err := s.tx.RunInTx(ctx, func(q repository.DBTX) error {
		pending, err := s.approvals.FindByID(ctx, q, id)
		if err != nil {
			return err
		}

		product := pending.Product
		deleted := false

		if approved {
			switch pending.Entry.ChangeType {
			case domain.ChangeCreate, domain.ChangeUpdate:
				product.IsActive = true
			case domain.ChangeDelete:
				deleted = true
			}
		} else {
			switch pending.Entry.ChangeType {
			case domain.ChangeCreate:
				deleted = true
			case domain.ChangeUpdate:
				if pending.Entry.OriginalPrice != nil {
					product.Price = *pending.Entry.OriginalPrice
				}
				if pending.Entry.OriginalStatus != nil {
					product.Status = *pending.Entry.OriginalStatus
				}
				product.IsActive = true
			case domain.ChangeDelete:
				product.IsActive = true
			}
		}

		if deleted {
			// Cascade removes the queue entry with the product.
			return s.products.Delete(ctx, q, product.ID)
		}

		if err := s.products.Update(ctx, q, &product); err != nil {
			return err
		}
		return s.approvals.Delete(ctx, q, pending.Entry.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrApprovalNotFound) {
			return err
		}
		return fmt.Errorf("failed to resolve approval: %w", err)
	}

	s.logger.Info("Approval resolved",
		zap.Int64("approval_id", id),
		zap.Bool("approved", approved),
	)

	return nil
}

// QueryProducts returns active products matching the filter, newest first.
func (s *catalogService) QueryProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.ProductDetail, error) {
	products, err := s.products.Query(ctx, s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return products, nil
}
