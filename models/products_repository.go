package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ErrProductExists is returned when inserting a product id that is already stored.
var ErrProductExists = errors.New("product already exists")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var baseColumns = []string{
	"name", "size", "current_price", "last_updated", "last_checked",
	"source_site", "unit_price", "unit_name", "original_unit_quantity",
}

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	Categories    []string
	PriceLessThan *float64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// Migrate creates or upgrades the product tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&ProductRow{}, &CategoryRow{}, &PriceHistoryRow{})
}

// Lookup returns the base fields of a product. Categories and history are not loaded.
func (r *ProductsRepository) Lookup(ctx context.Context, id string) (*Product, error) {
	var row ProductRow
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	p := row.toProduct()
	return &p, nil
}

// LoadCategories returns the product's category labels in insertion order.
func (r *ProductsRepository) LoadCategories(ctx context.Context, id string) ([]string, error) {
	var rows []CategoryRow
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load categories of %s: %w", id, err)
	}
	return categoryLabels(rows), nil
}

// LoadPriceHistory returns the product's price observations, oldest first.
func (r *ProductsRepository) LoadPriceHistory(ctx context.Context, id string) ([]DatedPrice, error) {
	var rows []PriceHistoryRow
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load price history of %s: %w", id, err)
	}
	return datedPrices(rows), nil
}

// Insert writes the base row, every category row and every price history row.
func (r *ProductsRepository) Insert(ctx context.Context, p *Product) error {
	row := newProductRow(p)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		if len(p.Category) > 0 {
			cats := newCategoryRows(p.ID, p.Category)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cats).Error; err != nil {
				return err
			}
		}
		if len(p.PriceHistory) > 0 {
			hist := newPriceHistoryRows(p.ID, p.PriceHistory)
			if err := tx.Create(&hist).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert %s: %w", p.ID, ErrProductExists)
		}
		return fmt.Errorf("insert %s: %w", p.ID, err)
	}
	return nil
}

// UpdateBaseFields rewrites every mutable base column of the product.
func (r *ProductsRepository) UpdateBaseFields(ctx context.Context, p *Product) error {
	row := newProductRow(p)
	res := r.db.WithContext(ctx).
		Model(&ProductRow{}).
		Where("id = ?", p.ID).
		Select(baseColumns).
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", p.ID, ErrProductNotFound)
	}
	return nil
}

// AppendPriceHistory adds one price observation to the product's history.
func (r *ProductsRepository) AppendPriceHistory(ctx context.Context, id string, dp DatedPrice) error {
	row := PriceHistoryRow{ProductID: id, Date: dp.Date, Price: dp.Price}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append price history of %s: %w", id, err)
	}
	return nil
}

// ReplaceCategories deletes every category row of the product and inserts labels.
func (r *ProductsRepository) ReplaceCategories(ctx context.Context, id string, labels []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&CategoryRow{}).Error; err != nil {
			return err
		}
		if len(labels) == 0 {
			return nil
		}
		rows := newCategoryRows(id, labels)
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("replace categories of %s: %w", id, err)
	}
	return nil
}

func (r *ProductsRepository) ListProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var rows []ProductRow
	var total int64

	query := r.db.WithContext(ctx).Model(&ProductRow{})

	// Filter
	if len(filters.Categories) > 0 {
		query = query.Where(
			"products.id IN (SELECT product_id FROM product_categories WHERE category = ANY(?))",
			pq.Array(filters.Categories),
		)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("products.current_price < ?", *filters.PriceLessThan)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	products := make([]Product, len(rows))
	for i, row := range rows {
		products[i] = row.toProduct()
	}
	return products, total, nil
}

// GetByID returns a product with its categories and full price history.
func (r *ProductsRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var row ProductRow
	if err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("PriceHistory", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, id ASC") }).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	p := row.toProduct()
	return &p, nil
}

// CategoryCounts returns every stored category label with its product count.
func (r *ProductsRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	if err := r.db.WithContext(ctx).
		Model(&CategoryRow{}).
		Select("category, COUNT(*) AS products").
		Group("category").
		Order("category ASC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
