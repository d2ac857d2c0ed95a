package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductNameExists = errors.New("product with this name already exists")
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation
const uniqueViolation = "23505"

// ProductRepository defines the interface for product data access.
// Name comparisons are case-insensitive.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.Product, int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByNameExcludingID(ctx context.Context, name string, id int64) (bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Save inserts the product when its ID is zero and assigns the new ID,
	// otherwise it overwrites the stored row with that ID.
	Save(ctx context.Context, product *domain.Product) error
	DeleteByID(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a PostgreSQL backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price FROM products WHERE id = $1`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&product.ID, &product.Name, &product.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindPage retrieves one page of products and the total number of products
func (r *productRepository) FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.Product, int64, error) {
	// Sort column and direction are interpolated, so only whitelisted values get through
	sortBy := page.Sort
	if !sortBy.IsValid() {
		sortBy = domain.SortByID
	}
	sortOrder := page.Order
	if sortOrder != domain.SortOrderAsc && sortOrder != domain.SortOrderDesc {
		sortOrder = domain.SortOrderDesc
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset, ok := page.Offset()
	if !ok || int64(offset) >= total {
		return []*domain.Product{}, total, nil
	}

	orderBy := fmt.Sprintf("%s %s", sortBy, sortOrder)
	if sortBy != domain.SortByID {
		orderBy += ", id ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, name, price
		FROM products
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, orderBy)

	rows, err := r.db.QueryContext(ctx, query, page.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Price); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// ExistsByName reports whether any product has the given name, ignoring case
func (r *productRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE UPPER(name) = UPPER($1))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return exists, nil
}

// ExistsByNameExcludingID reports whether a product other than id has the given name, ignoring case
func (r *productRepository) ExistsByNameExcludingID(ctx context.Context, name string, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE UPPER(name) = UPPER($1) AND id <> $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, name, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return exists, nil
}

// ExistsByID reports whether a product with the given ID exists
func (r *productRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// Save inserts or updates a product using parameterized queries
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	if product.ID == 0 {
		return r.insert(ctx, product)
	}
	return r.update(ctx, product)
}

func (r *productRepository) insert(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, product.Name, product.Price).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductNameExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepository) update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, product.ID, product.Name, product.Price)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductNameExists
		}
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

// DeleteByID removes a product from the database using parameterized queries
func (r *productRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
