package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding product documents.
const CollectionName = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	CategoryID  string             `bson:"categoryId"`
	Color       string             `bson:"color"`
	Width       float64            `bson:"width"`
	Height      float64            `bson:"height"`
	Depth       float64            `bson:"depth"`
	Image       []byte             `bson:"image,omitempty"`
	ModelPath   string             `bson:"model_path"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDocument(id primitive.ObjectID, p Product) productDocument {
	return productDocument{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		Color:       p.Color,
		Width:       p.Width,
		Height:      p.Height,
		Depth:       p.Depth,
		Image:       nullBytes(p.Image),
		ModelPath:   p.ModelPath,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDocument) product() Product {
	return Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		CategoryID:  d.CategoryID,
		Color:       d.Color,
		Width:       d.Width,
		Height:      d.Height,
		Depth:       d.Depth,
		Image:       d.Image,
		ModelPath:   d.ModelPath,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns the document-store Repository over db.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureMongoIndexes creates the category lookup index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "categoryId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("products: create mongo index: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	product.CreatedAt = now
	product.UpdatedAt = now
	doc := toDocument(primitive.NewObjectIDFromTimestamp(now), product)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return Product{}, fmt.Errorf("products: insert: %w", err)
	}
	return doc.product(), nil
}

func findArgs(filter ListFilter) (bson.D, *options.FindOptions) {
	query := bson.D{}
	if filter.CategoryID != nil {
		query = bson.D{{Key: "categoryId", Value: *filter.CategoryID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter.Skip > 0 {
		opts.SetSkip(int64(filter.Skip))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return query, opts
}

func (r *mongoRepository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query, opts := findArgs(filter)
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	products := make([]Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.product())
	}
	return products, nil
}

func (r *mongoRepository) Get(ctx context.Context, id string) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	var doc productDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("products: get %s: %w", id, err)
	}
	return doc.product(), nil
}

func (r *mongoRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("products: count: %w", err)
	}
	return total, nil
}

func (r *mongoRepository) Save(ctx context.Context, product Product) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(product.ID)
	if err != nil {
		return Product{}, ErrNotFound
	}
	product.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, toDocument(oid, product))
	if err != nil {
		return Product{}, fmt.Errorf("products: update %s: %w", product.ID, err)
	}
	if res.MatchedCount == 0 {
		return Product{}, ErrNotFound
	}
	return product, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("products: delete %s: %w", id, err)
	}
	return nil
}
