package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/data/database"
	"github.com/target/mmk-product-admin/internal/data/pgxutil"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

const productListingView = "product_listing"

// ProductRepo provides database operations for products.
// Reads go through the product_listing view, which joins the owning contact.
type ProductRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo creates a new ProductRepo with real time provider.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewProductRepoWithTimeProvider creates a ProductRepo with a custom time provider.
func NewProductRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProductRepo {
	return &ProductRepo{DB: db, timeProvider: tp}
}

func productColumns() []string {
	return []string{
		"id", "name", "sku", "description", "price", "currency", "stock",
		"contact_id", "contact_name", "created_at", "updated_at",
	}
}

// scanProduct maps a product_listing row. contact_id and contact_name are NULL for unowned products.
func scanProduct(row pgx.CollectableRow) (model.Product, error) {
	var (
		p           model.Product
		contactID   *int64
		contactName *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description, &p.Price, &p.Currency, &p.Stock,
		&contactID, &contactName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Product{}, err
	}
	if contactID != nil {
		ref := &model.ContactRef{ID: *contactID}
		if contactName != nil {
			ref.Name = *contactName
		}
		p.Contact = ref
	}
	return p, nil
}

func listConditions(opts model.ProductListOptions) []database.ListQueryOption {
	var out []database.ListQueryOption
	if opts.ContactID != nil {
		out = append(out, database.WithCondition(database.WhereCond("contact_id", database.Equal, *opts.ContactID)))
	}
	return out
}

// Create inserts a new product and returns it with its contact resolved.
func (r *ProductRepo) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req == nil {
		return nil, ErrRequestRequired
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now().UTC()
	var id int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			INSERT INTO products (name, sku, description, price, currency, stock, contact_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $8)
			RETURNING id`,
			req.Name, req.SKU, req.Description, req.Price.String(), req.Currency, req.Stock, req.ContactID, now,
		).Scan(&id)
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	q, args := database.BuildListQuery(database.NewListQueryOptions(productListingView,
		database.WithColumns(productColumns()...),
		database.WithCondition(database.WhereCond("id", database.Equal, id)),
	))

	var out model.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanProduct)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrap(ErrProductNotFound, apperrors.ErrCodeNotFound, "Product not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get product %d: %w", id, err))
	}
	return &out, nil
}

// List returns one page of products ordered by id.
func (r *ProductRepo) List(ctx context.Context, opts model.ProductListOptions) ([]model.Product, error) {
	if opts.Limit <= 0 {
		opts.Limit = model.DefaultPageLimit
	}
	opts.Offset = max(opts.Offset, 0)

	qopts := append(listConditions(opts),
		database.WithColumns(productColumns()...),
		database.WithOrderBy("ASC", "id"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	)
	q, args := database.BuildListQuery(database.NewListQueryOptions(productListingView, qopts...))

	var out []model.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanProduct)
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list products: %w", err))
	}
	return out, nil
}

// Count returns the number of products matching the filters in opts. Paging fields are ignored.
func (r *ProductRepo) Count(ctx context.Context, opts model.ProductListOptions) (int, error) {
	qopts := append(listConditions(opts), database.WithCountOnly())
	q, args := database.BuildListQuery(database.NewListQueryOptions(productListingView, qopts...))

	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, q, args...).Scan(&n)
	})
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("count products: %w", err))
	}
	return n, nil
}
