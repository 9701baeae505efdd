package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-approvals/internal/domain"
	"catalog-approvals/internal/middleware"
	"catalog-approvals/internal/repository"
	"catalog-approvals/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// UpdatePriceRequest represents the price update payload
type UpdatePriceRequest struct {
	NewPrice float64 `json:"new_price" validate:"gte=0"`
}

// ResolveApprovalRequest represents the approve/reject decision payload
type ResolveApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ProductHandler handles HTTP requests for catalog and approval operations
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product and approval routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public catalog browsing
		r.Get("/", h.QueryProducts)

		// Mutations and review require an authenticated caller
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}/price", h.UpdatePrice)
			r.Get("/approvals", h.ListApprovals)
			r.Post("/approvals/{id}", h.ResolveApproval)
		})
	})
}

// QueryProducts handles filtered catalog listing
func (h *ProductHandler) QueryProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.catalogService.QueryProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Product query failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to query products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), req.Name, req.Price)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			middleware.RespondWithError(w, http.StatusBadRequest, service.ErrInvalidPrice.Error())
			return
		}

		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Bool("is_active", product.IsActive),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdatePrice handles a price change request
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdatePriceRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Price update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalogService.UpdatePrice(r.Context(), id, req.NewPrice); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInactiveProduct):
			middleware.RespondWithError(w, http.StatusConflict, service.ErrInactiveProduct.Error())
		default:
			h.logger.Error("Price update failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update price")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListApprovals handles listing the open approval queue
func (h *ProductHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.catalogService.ListApprovals(r.Context())
	if err != nil {
		h.logger.Error("Approval listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list approvals")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, approvals)
}

// ResolveApproval handles an approve/reject decision on a queued entry
func (h *ProductHandler) ResolveApproval(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid approval id")
		return
	}

	var req ResolveApprovalRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Approval resolution validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalogService.ResolveApproval(r.Context(), id, *req.Approved); err != nil {
		if errors.Is(err, repository.ErrApprovalNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "approval queue entry not found")
			return
		}

		h.logger.Error("Approval resolution failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to resolve approval")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseProductFilter binds the catalog query parameters. Dates are RFC3339.
func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Name: r.URL.Query().Get("name"),
	}

	if v := r.URL.Query().Get("min_price"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("invalid min_price")
		}
		filter.MinPrice = &minPrice
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, errors.New("invalid max_price")
		}
		filter.MaxPrice = &maxPrice
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		startDate, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid start_date, expected RFC3339")
		}
		filter.StartDate = &startDate
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		endDate, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("invalid end_date, expected RFC3339")
		}
		filter.EndDate = &endDate
	}

	return filter, nil
}
