package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Name length bounds, counted in characters
	NameMinLength = 2
	NameMaxLength = 120
)

func init() {
	// Prices travel as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID    int64           `json:"id" db:"id"`
	Name  string          `json:"name" db:"name"`
	Price decimal.Decimal `json:"price" db:"price"`
}

// SortField is a column products can be ordered by
type SortField string

const (
	SortByID    SortField = "id"
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
)

// IsValid reports whether the field is one of the sortable columns
func (f SortField) IsValid() bool {
	switch f {
	case SortByID, SortByName, SortByPrice:
		return true
	}
	return false
}

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ParseSortOrder maps "asc" in any case to ascending; everything else is descending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// PageRequest describes one zero-based page of an ordered product listing
type PageRequest struct {
	Page  int
	Limit int
	Sort  SortField
	Order SortOrder
}

// Offset returns the number of rows to skip. ok is false for a negative page
// or when Page*Limit does not fit in an int; such a page is past any collection.
func (p PageRequest) Offset() (offset int, ok bool) {
	if p.Page < 0 || (p.Limit > 0 && p.Page > math.MaxInt/p.Limit) {
		return 0, false
	}
	return p.Page * p.Limit, true
}

// PaginatedResult is a bounded slice of the full ordered collection plus its totals
type PaginatedResult[T any] struct {
	Content    []T   `json:"content"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
}

// TotalPages returns ceil(totalItems / limit), or 0 for a non-positive limit
func TotalPages(totalItems int64, limit int) int {
	if limit <= 0 || totalItems <= 0 {
		return 0
	}
	return int((totalItems + int64(limit) - 1) / int64(limit))
}
