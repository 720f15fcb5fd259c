package models

// CategoryRow records that a product belongs to a category.
// The (product, category) pair is unique.
type CategoryRow struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"not null;uniqueIndex:idx_product_category"`
	Category  string `gorm:"not null;uniqueIndex:idx_product_category"`
}

func (c *CategoryRow) TableName() string {
	return "product_categories"
}

// CategoryCount is the number of products filed under a category label.
type CategoryCount struct {
	Category string
	Products int64
}

func newCategoryRows(productID string, labels []string) []CategoryRow {
	rows := make([]CategoryRow, len(labels))
	for i, label := range labels {
		rows[i] = CategoryRow{ProductID: productID, Category: label}
	}
	return rows
}

func categoryLabels(rows []CategoryRow) []string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Category
	}
	return labels
}

// uniqueLabels drops repeated labels, keeping first occurrences in order.
func uniqueLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
