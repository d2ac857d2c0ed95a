package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 10
	MinLimit     = 10
	MaxLimit     = 50
)

var (
	ErrProductNotFound  = &domain.Error{Kind: domain.ErrNotFound, Message: "Product not found"}
	ErrProductNameTaken = &domain.Error{Kind: domain.ErrConflict, Message: "Product with this name already exists"}
)

// ProductService defines the interface for product business logic
type ProductService interface {
	List(ctx context.Context, page, limit int, sort, order string) (*domain.PaginatedResult[*domain.Product], error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, name string, price decimal.Decimal) (*domain.Product, error)
	Update(ctx context.Context, id int64, name string, price decimal.Decimal) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(repo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		repo:   repo,
		logger: logger,
	}
}

// List returns one zero-based page of products. Bounds are checked by the transport layer;
// out-of-range values are clamped here instead of failing.
func (s *productService) List(ctx context.Context, page, limit int, sort, order string) (*domain.PaginatedResult[*domain.Product], error) {
	req := domain.PageRequest{
		Page:  max(page, 0),
		Limit: limit,
		Sort:  domain.SortField(strings.ToLower(sort)),
		Order: domain.ParseSortOrder(order),
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if !req.Sort.IsValid() {
		req.Sort = domain.SortByID
	}

	s.logger.Info("Finding products",
		zap.Int("page", req.Page),
		zap.Int("limit", req.Limit),
		zap.String("sort", string(req.Sort)),
		zap.String("order", string(req.Order)),
	)

	products, total, err := s.repo.FindPage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &domain.PaginatedResult[*domain.Product]{
		Content:    products,
		TotalPages: domain.TotalPages(total, req.Limit),
		TotalItems: total,
	}, nil
}

// GetByID retrieves a product by ID
func (s *productService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	s.logger.Info("Finding product by id", zap.Int64("id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// Create stores a new product after checking its name is not taken.
// The check and the insert are not atomic; concurrent creates with the same name
// are caught by the store's unique index where it has one.
func (s *productService) Create(ctx context.Context, name string, price decimal.Decimal) (*domain.Product, error) {
	s.logger.Info("Creating product", zap.String("name", name), zap.Stringer("price", price))

	if err := validateProduct(name, price); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return nil, ErrProductNameTaken
	}

	product := &domain.Product{
		Name:  name,
		Price: price,
	}

	if err := s.repo.Save(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNameExists) {
			return nil, ErrProductNameTaken
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update replaces the name and price of an existing product.
// The name conflict check runs before the existence check, so a taken name
// yields ErrProductNameTaken even when id does not exist.
func (s *productService) Update(ctx context.Context, id int64, name string, price decimal.Decimal) (*domain.Product, error) {
	s.logger.Info("Updating product",
		zap.Int64("id", id),
		zap.String("name", name),
		zap.Stringer("price", price),
	)

	if err := validateProduct(name, price); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByNameExcludingID(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if taken {
		return nil, ErrProductNameTaken
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	product.Name = name
	product.Price = price

	if err := s.repo.Save(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNameExists):
			return nil, ErrProductNameTaken
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete removes a product. Deleting a missing product is an error, not a no-op.
func (s *productService) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Deleting product by id", zap.Int64("id", id))

	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return ErrProductNotFound
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// validateProduct repeats the transport checks for callers that skip the HTTP layer
func validateProduct(name string, price decimal.Decimal) error {
	var fields []string

	switch n := utf8.RuneCountInString(name); {
	case strings.TrimSpace(name) == "":
		fields = append(fields, "name: Name is required")
	case n < domain.NameMinLength || n > domain.NameMaxLength:
		fields = append(fields, "name: Name must be between 2 and 120 characters")
	}

	if !price.IsPositive() {
		fields = append(fields, "price: Price must be a positive value")
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}
