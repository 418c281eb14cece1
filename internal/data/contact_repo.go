package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/data/database"
	"github.com/target/mmk-product-admin/internal/data/pgxutil"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

const defaultContactLimit = 200

// ContactRepo provides database operations for contacts.
type ContactRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.ContactRepository = (*ContactRepo)(nil)

// NewContactRepo creates a new ContactRepo.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewContactRepoWithTimeProvider creates a ContactRepo with a custom time provider.
func NewContactRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: tp}
}

var contactColumns = []string{"id", "name", "email", "created_at"}

// Create inserts a new contact.
func (r *ContactRepo) Create(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error) {
	if req == nil {
		return nil, ErrRequestRequired
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out model.Contact
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO contacts (name, email, created_at)
			VALUES ($1, $2, $3)
			RETURNING id, name, email, created_at`,
			req.Name, req.Email, r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Contact])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a contact by ID.
func (r *ContactRepo) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	q, args := database.BuildListQuery(database.NewListQueryOptions("contacts",
		database.WithColumns(contactColumns...),
		database.WithCondition(database.WhereCond("id", database.Equal, id)),
	))

	var out model.Contact
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Contact])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrap(ErrContactNotFound, apperrors.ErrCodeNotFound, "Contact not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("get contact %d: %w", id, err))
	}
	return &out, nil
}

// List returns contacts ordered by name. Search is a case-insensitive substring match.
func (r *ContactRepo) List(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultContactLimit
	}

	qopts := []database.ListQueryOption{
		database.WithColumns(contactColumns...),
		database.WithOrderBy("ASC", "name", "id"),
		database.WithLimit(opts.Limit),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		qopts = append(qopts, database.WithCondition(database.WhereCond("name", database.ILike, "%"+escapeLike(s)+"%")))
	}
	q, args := database.BuildListQuery(database.NewListQueryOptions("contacts", qopts...))

	var out []model.Contact
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Contact])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list contacts: %w", err))
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
