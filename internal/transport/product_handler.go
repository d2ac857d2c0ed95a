package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Query parameter defaults for listing products
const (
	defaultPage  = 0
	defaultLimit = service.DefaultLimit
	defaultSort  = string(domain.SortByID)
	defaultOrder = "desc"
)

// ProductRequest is the create/update payload. A client supplied id is accepted and ignored.
type ProductRequest struct {
	ID    *int64           `json:"id,omitempty"`
	Name  string           `json:"name" validate:"required,notblank,min=2,max=120"`
	Price *decimal.Decimal `json:"price" validate:"required,gt=0"`
}

// ValidationMessages implements middleware.MessageProvider
func (ProductRequest) ValidationMessages() map[string]string {
	return map[string]string{
		"name.required":  "Name is required",
		"name.notblank":  "Name is required",
		"name.min":       "Name must be between 2 and 120 characters",
		"name.max":       "Name must be between 2 and 120 characters",
		"price.required": "Price is required",
		"price.gt":       "Price must be a positive value",
	}
}

// ListQuery holds the list endpoint's query parameters
type ListQuery struct {
	Page  int    `json:"page" validate:"gte=0"`
	Limit int    `json:"limit" validate:"gte=10,lte=50"`
	Sort  string `json:"sort" validate:"oneof=id name price"`
	Order string `json:"order" validate:"oneof=asc desc"`
}

// ValidationMessages implements middleware.MessageProvider
func (ListQuery) ValidationMessages() map[string]string {
	return map[string]string{
		"page.gte":    "Page must be greater than or equal to zero",
		"limit.gte":   "Limit must be greater than or equal to 10",
		"limit.lte":   "Limit must be less than or equal to 50",
		"sort.oneof":  "Sort must be one of: id, name or price",
		"order.oneof": "Order must be either asc or desc",
	}
}

// ProductResponse is the product representation returned by the API
type ProductResponse struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
	}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles paginated product listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query, fieldErrors := parseListQuery(r)
	if len(fieldErrors) > 0 {
		h.logger.Debug("List query validation failed", zap.Strings("errors", fieldErrors))
		middleware.RespondWithValidationErrors(w, fieldErrors)
		return
	}

	result, err := h.productService.List(r.Context(), query.Page, query.Limit, query.Sort, query.Order)
	if err != nil {
		middleware.RespondWithError(w, r, h.logger, err)
		return
	}

	content := make([]ProductResponse, 0, len(result.Content))
	for _, p := range result.Content {
		content = append(content, newProductResponse(p))
	}

	middleware.RespondWithJSON(w, http.StatusOK, domain.PaginatedResult[ProductResponse]{
		Content:    content,
		TotalPages: result.TotalPages,
		TotalItems: result.TotalItems,
	})
}

// GetByID handles fetching a single product
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), req.Name, *req.Price)
	if err != nil {
		middleware.RespondWithError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	w.Header().Set("Location", fmt.Sprintf("/products/%d", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// Update handles replacing a product's name and price
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Update(r.Context(), id, req.Name, *req.Price)
	if err != nil {
		middleware.RespondWithError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Delete handles product removal
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		middleware.RespondWithError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product request validation failed", zap.Error(err))

		if errors.Is(err, middleware.ErrMalformedBody) {
			middleware.RespondWithProblem(w, http.StatusBadRequest, "Malformed request body")
			return nil, false
		}

		if fieldErrors := middleware.FormatValidationErrors(err, req); len(fieldErrors) > 0 {
			middleware.RespondWithValidationErrors(w, fieldErrors)
			return nil, false
		}

		middleware.RespondWithProblem(w, http.StatusBadRequest, "Invalid argument")
		return nil, false
	}

	return &req, true
}

// parseID reads the {id} path parameter, which must be a positive integer
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithValidationErrors(w, []string{"id: Id must be a positive number"})
		return 0, false
	}
	return id, true
}

// parseListQuery applies defaults, then validates page, limit, sort and order together
func parseListQuery(r *http.Request) (ListQuery, []string) {
	q := r.URL.Query()
	query := ListQuery{
		Page:  defaultPage,
		Limit: defaultLimit,
		Sort:  defaultSort,
		Order: defaultOrder,
	}

	var fieldErrors []string

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			fieldErrors = append(fieldErrors, "page: Page must be a number")
		} else {
			query.Page = page
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			fieldErrors = append(fieldErrors, "limit: Limit must be a number")
		} else {
			query.Limit = limit
		}
	}
	if v := q.Get("sort"); v != "" {
		query.Sort = v
	}
	if v := q.Get("order"); v != "" {
		query.Order = strings.ToLower(v)
	}

	if err := middleware.ValidateRequest(query); err != nil {
		fieldErrors = append(fieldErrors, middleware.FormatValidationErrors(err, query)...)
	}

	return query, fieldErrors
}
