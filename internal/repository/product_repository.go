package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-approvals/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access. Methods
// take a DBTX so the workflow engine can group writes into one transaction.
type ProductRepository interface {
	Create(ctx context.Context, q DBTX, product *domain.ProductDetail) error
	Update(ctx context.Context, q DBTX, product *domain.ProductDetail) error
	Delete(ctx context.Context, q DBTX, id int64) error
	FindByID(ctx context.Context, q DBTX, id int64) (*domain.ProductDetail, error)
	Query(ctx context.Context, q DBTX, filter domain.ProductFilter) ([]*domain.ProductDetail, error)
}

type productRepository struct{}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository() ProductRepository {
	return &productRepository{}
}

// Create inserts a new product and fills in its store-assigned id
func (r *productRepository) Create(ctx context.Context, q DBTX, product *domain.ProductDetail) error {
	query := `
		INSERT INTO product_details (name, price, posted_date, is_active, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := q.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Price,
		product.PostedDate,
		product.IsActive,
		product.Status,
	).Scan(&product.ID)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the mutable columns of an existing product
func (r *productRepository) Update(ctx context.Context, q DBTX, product *domain.ProductDetail) error {
	query := `
		UPDATE product_details
		SET name = $2, price = $3, is_active = $4, status = $5
		WHERE id = $1
	`

	result, err := q.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Price,
		product.IsActive,
		product.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product. The approval_queues foreign key cascades, so any
// open queue entry referencing the product goes with it.
func (r *productRepository) Delete(ctx context.Context, q DBTX, id int64) error {
	query := `DELETE FROM product_details WHERE id = $1`

	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID, active or not
func (r *productRepository) FindByID(ctx context.Context, q DBTX, id int64) (*domain.ProductDetail, error) {
	query := `
		SELECT id, name, price, posted_date, is_active, status
		FROM product_details
		WHERE id = $1
	`

	product := &domain.ProductDetail{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.PostedDate,
		&product.IsActive,
		&product.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// Query retrieves active products matching the filter, newest posting first.
// Inactive products are under review and hidden from the catalog.
func (r *productRepository) Query(ctx context.Context, q DBTX, filter domain.ProductFilter) ([]*domain.ProductDetail, error) {
	// Build the WHERE clause from the optional filter fields
	whereClause := "WHERE is_active = TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.Name != "" {
		whereClause += fmt.Sprintf(" AND name ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Name+"%")
		argIndex++
	}
	if filter.MinPrice != nil {
		whereClause += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		whereClause += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if filter.StartDate != nil {
		whereClause += fmt.Sprintf(" AND posted_date >= $%d", argIndex)
		args = append(args, *filter.StartDate)
		argIndex++
	}
	if filter.EndDate != nil {
		whereClause += fmt.Sprintf(" AND posted_date <= $%d", argIndex)
		args = append(args, *filter.EndDate)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT id, name, price, posted_date, is_active, status
		FROM product_details
		%s
		ORDER BY posted_date DESC
	`, whereClause)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.ProductDetail{}
	for rows.Next() {
		product := &domain.ProductDetail{}
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.PostedDate,
			&product.IsActive,
			&product.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
