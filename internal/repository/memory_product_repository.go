package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"product-catalog/internal/domain"
)

type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

// NewMemoryProductRepository creates a ProductRepository that keeps products in process memory.
// It is safe for concurrent use and enforces name uniqueness on Save.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{
		products: make(map[int64]domain.Product),
		nextID:   1,
	}
}

func (r *memoryProductRepository) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (r *memoryProductRepository) FindPage(_ context.Context, page domain.PageRequest) ([]*domain.Product, int64, error) {
	r.mu.RLock()
	all := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	r.mu.RUnlock()

	desc := page.Order != domain.SortOrderAsc
	slices.SortFunc(all, func(a, b domain.Product) int {
		var c int
		switch page.Sort {
		case domain.SortByName:
			c = strings.Compare(a.Name, b.Name)
		case domain.SortByPrice:
			c = a.Price.Cmp(b.Price)
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})

	total := int64(len(all))
	products := []*domain.Product{}
	if page.Limit <= 0 {
		return products, total, nil
	}

	start, ok := page.Offset()
	if !ok || start >= len(all) {
		return products, total, nil
	}
	end := min(start+page.Limit, len(all))
	for i := start; i < end; i++ {
		p := all[i]
		products = append(products, &p)
	}

	return products, total, nil
}

func (r *memoryProductRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTaken(name, 0), nil
}

func (r *memoryProductRepository) ExistsByNameExcludingID(_ context.Context, name string, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTaken(name, id), nil
}

func (r *memoryProductRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

func (r *memoryProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same backstop as the unique index on UPPER(name) in PostgreSQL
	if r.nameTaken(product.Name, product.ID) {
		return ErrProductNameExists
	}

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}

	r.products[product.ID] = *product
	return nil
}

func (r *memoryProductRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// nameTaken must be called with the lock held. An excludeID of 0 excludes nothing.
func (r *memoryProductRepository) nameTaken(name string, excludeID int64) bool {
	for id, p := range r.products {
		if id != excludeID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}
