package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

// productDocument stores a product with its categories and history embedded.
type productDocument struct {
	ID                   string                `bson:"_id"`
	Name                 string                `bson:"name"`
	Size                 string                `bson:"size,omitempty"`
	CurrentPrice         primitive.Decimal128  `bson:"current_price"`
	LastUpdated          time.Time             `bson:"last_updated"`
	LastChecked          time.Time             `bson:"last_checked"`
	SourceSite           string                `bson:"source_site"`
	UnitPrice            *primitive.Decimal128 `bson:"unit_price,omitempty"`
	UnitName             string                `bson:"unit_name,omitempty"`
	OriginalUnitQuantity *primitive.Decimal128 `bson:"original_unit_quantity,omitempty"`
	Categories           []string              `bson:"categories"`
	PriceHistory         []priceDocument       `bson:"price_history"`
}

type priceDocument struct {
	Date  time.Time            `bson:"date"`
	Price primitive.Decimal128 `bson:"price"`
}

// MongoRepository stores products as single documents in a collection.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{
		collection: collection,
	}
}

// EnsureIndexes creates the secondary indexes used by category queries.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "categories", Value: 1}},
	})
	return err
}

func (r *MongoRepository) Lookup(ctx context.Context, id string) (*Product, error) {
	doc, err := r.findOne(ctx, id, bson.M{"categories": 0, "price_history": 0})
	if err != nil {
		return nil, err
	}
	p, err := doc.toProduct()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) LoadCategories(ctx context.Context, id string) ([]string, error) {
	doc, err := r.findOne(ctx, id, bson.M{"categories": 1})
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (r *MongoRepository) LoadPriceHistory(ctx context.Context, id string) ([]DatedPrice, error) {
	doc, err := r.findOne(ctx, id, bson.M{"price_history": 1})
	if err != nil {
		return nil, err
	}
	history, err := fromPriceDocuments(doc.PriceHistory)
	if err != nil {
		return nil, fmt.Errorf("load price history of %s: %w", id, err)
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	return history, nil
}

func (r *MongoRepository) Insert(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	doc, err := newProductDocument(p)
	if err != nil {
		return fmt.Errorf("insert %s: %w", p.ID, err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s: %w", p.ID, ErrProductExists)
		}
		return fmt.Errorf("insert %s: %w", p.ID, err)
	}
	return nil
}

func (r *MongoRepository) UpdateBaseFields(ctx context.Context, p *Product) error {
	doc, err := newProductDocument(p)
	if err != nil {
		return fmt.Errorf("update %s: %w", p.ID, err)
	}
	set := bson.M{
		"name":                   doc.Name,
		"size":                   doc.Size,
		"current_price":          doc.CurrentPrice,
		"last_updated":           doc.LastUpdated,
		"last_checked":           doc.LastChecked,
		"source_site":            doc.SourceSite,
		"unit_price":             doc.UnitPrice,
		"unit_name":              doc.UnitName,
		"original_unit_quantity": doc.OriginalUnitQuantity,
	}
	return r.updateOne(ctx, p.ID, bson.M{"$set": set}, "update")
}

func (r *MongoRepository) AppendPriceHistory(ctx context.Context, id string, dp DatedPrice) error {
	price, err := toDecimal128(dp.Price)
	if err != nil {
		return fmt.Errorf("append price history of %s: %w", id, err)
	}
	update := bson.M{"$push": bson.M{"price_history": priceDocument{Date: dp.Date, Price: price}}}
	return r.updateOne(ctx, id, update, "append price history of")
}

func (r *MongoRepository) ReplaceCategories(ctx context.Context, id string, labels []string) error {
	update := bson.M{"$set": bson.M{"categories": uniqueLabels(labels)}}
	return r.updateOne(ctx, id, update, "replace categories of")
}

func (r *MongoRepository) findOne(ctx context.Context, id string, projection bson.M) (*productDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc productDocument
	opts := options.FindOne().SetProjection(projection)
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *MongoRepository) updateOne(ctx context.Context, id string, update bson.M, op string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrProductNotFound)
	}
	return nil
}

func newProductDocument(p *Product) (*productDocument, error) {
	price, err := toDecimal128(p.CurrentPrice)
	if err != nil {
		return nil, err
	}
	unitPrice, err := toNullDecimal128(p.UnitPrice)
	if err != nil {
		return nil, err
	}
	quantity, err := toNullDecimal128(p.OriginalUnitQuantity)
	if err != nil {
		return nil, err
	}
	history := make([]priceDocument, len(p.PriceHistory))
	for i, dp := range p.PriceHistory {
		hp, err := toDecimal128(dp.Price)
		if err != nil {
			return nil, err
		}
		history[i] = priceDocument{Date: dp.Date, Price: hp}
	}
	return &productDocument{
		ID:                   p.ID,
		Name:                 p.Name,
		Size:                 p.Size,
		CurrentPrice:         price,
		LastUpdated:          p.LastUpdated,
		LastChecked:          p.LastChecked,
		SourceSite:           p.SourceSite,
		UnitPrice:            unitPrice,
		UnitName:             p.UnitName,
		OriginalUnitQuantity: quantity,
		Categories:           uniqueLabels(p.Category),
		PriceHistory:         history,
	}, nil
}

func (d *productDocument) toProduct() (Product, error) {
	price, err := decimal.NewFromString(d.CurrentPrice.String())
	if err != nil {
		return Product{}, err
	}
	unitPrice, err := fromNullDecimal128(d.UnitPrice)
	if err != nil {
		return Product{}, err
	}
	quantity, err := fromNullDecimal128(d.OriginalUnitQuantity)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:                   d.ID,
		Name:                 d.Name,
		Size:                 d.Size,
		CurrentPrice:         price,
		LastUpdated:          d.LastUpdated,
		LastChecked:          d.LastChecked,
		SourceSite:           d.SourceSite,
		UnitPrice:            unitPrice,
		UnitName:             d.UnitName,
		OriginalUnitQuantity: quantity,
	}, nil
}

func fromPriceDocuments(docs []priceDocument) ([]DatedPrice, error) {
	out := make([]DatedPrice, len(docs))
	for i, d := range docs {
		price, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return nil, err
		}
		out[i] = DatedPrice{Date: d.Date, Price: price}
	}
	return out, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func toNullDecimal128(d decimal.NullDecimal) (*primitive.Decimal128, error) {
	if !d.Valid {
		return nil, nil
	}
	v, err := toDecimal128(d.Decimal)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fromNullDecimal128(d *primitive.Decimal128) (decimal.NullDecimal, error) {
	if d == nil {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}
