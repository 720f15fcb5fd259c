package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/pricesync/app/httputil"
	"github.com/shelfwatch/pricesync/logging"
	"github.com/shelfwatch/pricesync/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        string    `json:"size,omitempty"`
	Price       float64   `json:"price"`
	SourceSite  string    `json:"sourceSite"`
	Categories  []string  `json:"categories"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

type ProductDetail struct {
	Product
	LastChecked          time.Time    `json:"lastChecked"`
	UnitPrice            *float64     `json:"unitPrice"`
	UnitName             string       `json:"unitName,omitempty"`
	OriginalUnitQuantity *float64     `json:"originalUnitQuantity"`
	PriceHistory         []PricePoint `json:"priceHistory"`
}

type ProductProvider interface {
	ListProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := query.Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := query.Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			limit = min(max(l, 1), 100)
		}
	}

	// Parse filters
	var categories []string
	for _, value := range query["category"] {
		for _, c := range strings.Split(value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				categories = append(categories, c)
			}
		}
	}

	var priceFilter *float64
	if priceStr := query.Get("price_lt"); priceStr != "" {
		val, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid price_lt")
			return
		}
		priceFilter = &val
	}

	filters := models.ProductFilters{
		Categories:    categories,
		PriceLessThan: priceFilter,
	}

	res, total, err := h.repo.ListProducts(r.Context(), offset, limit, filters)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to list products")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p)
	}

	httputil.WriteJSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		logging.FromContext(r.Context()).Error().Err(err).Str("product_id", id).Msg("Failed to retrieve product")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	history := make([]PricePoint, len(product.PriceHistory))
	for i, dp := range product.PriceHistory {
		history[i] = PricePoint{
			Date:  dp.Date,
			Price: dp.Price.InexactFloat64(),
		}
	}

	httputil.WriteJSON(w, http.StatusOK, ProductDetail{
		Product:              toProduct(*product),
		LastChecked:          product.LastChecked,
		UnitPrice:            nullFloat(product.UnitPrice),
		UnitName:             product.UnitName,
		OriginalUnitQuantity: nullFloat(product.OriginalUnitQuantity),
		PriceHistory:         history,
	})
}

func toProduct(p models.Product) Product {
	categories := p.Category
	if categories == nil {
		categories = []string{}
	}
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Size:        p.Size,
		Price:       p.CurrentPrice.InexactFloat64(),
		SourceSite:  p.SourceSite,
		Categories:  categories,
		LastUpdated: p.LastUpdated,
	}
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
