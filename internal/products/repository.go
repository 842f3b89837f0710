package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products. Implementations return ErrNotFound for
// unknown or malformed ids and list in insertion order.
type Repository interface {
	Create(ctx context.Context, product Product) (Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Count(ctx context.Context) (int64, error)
	Save(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

const productColumns = `id, name, description, price, category_id, color, width, height, depth, image, model_path, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p  Product
		id uuid.UUID
	)
	err := row.Scan(&id, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Color, &p.Width, &p.Height, &p.Depth, &p.Image, &p.ModelPath, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.String()
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	id := uuid.New()
	now := time.Now().UTC()
	query := `INSERT INTO products (id, name, description, price, category_id, color, width, height, depth, image, model_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`
	_, err := r.db.Exec(ctx, query, id, product.Name, product.Description, product.Price, product.CategoryID, product.Color,
		product.Width, product.Height, product.Depth, nullBytes(product.Image), product.ModelPath, now)
	if err != nil {
		return Product{}, fmt.Errorf("products: insert: %w", err)
	}
	product.ID = id.String()
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func listQuery(filter ListFilter) (string, []interface{}) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += ` AND category_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY seq ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	return query, args
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query, args := listQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("products: scan: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return products, nil
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Product{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, uid)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("products: get %s: %w", id, err)
	}
	return p, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("products: count: %w", err)
	}
	return total, nil
}

func (r *repository) Save(ctx context.Context, product Product) (Product, error) {
	uid, err := uuid.Parse(product.ID)
	if err != nil {
		return Product{}, ErrNotFound
	}
	now := time.Now().UTC()
	query := `UPDATE products SET name = $1, description = $2, price = $3, category_id = $4, color = $5,
		width = $6, height = $7, depth = $8, image = $9, model_path = $10, updated_at = $11 WHERE id = $12`
	tag, err := r.db.Exec(ctx, query, product.Name, product.Description, product.Price, product.CategoryID, product.Color,
		product.Width, product.Height, product.Depth, nullBytes(product.Image), product.ModelPath, now, uid)
	if err != nil {
		return Product{}, fmt.Errorf("products: update %s: %w", product.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrNotFound
	}
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, uid); err != nil {
		return fmt.Errorf("products: delete %s: %w", id, err)
	}
	return nil
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
