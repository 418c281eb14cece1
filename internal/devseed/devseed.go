// Package devseed loads a deterministic set of contacts and products for local development.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/target/mmk-product-admin/internal/data"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

// ContactStore is the subset of the contact repository seeding needs.
type ContactStore interface {
	Create(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error)
	List(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error)
}

// ProductStore is the subset of the product repository seeding needs.
type ProductStore interface {
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Contacts ContactStore
	Products ProductStore
}

// NewServices constructs the repositories used for seeding from db.
func NewServices(db *sql.DB) Services {
	return Services{
		Contacts: data.NewContactRepo(db),
		Products: data.NewProductRepo(db),
	}
}

// Stats reports what a Run created.
type Stats struct {
	ContactsCreated int
	ProductsCreated int
	Skipped         int
}

var seedContacts = []model.CreateContactRequest{
	{Name: "Acme Supply", Email: "orders@acme.example.com"},
	{Name: "Globex", Email: "sales@globex.example.com"},
	{Name: "Initech", Email: "purchasing@initech.example.com"},
	{Name: "Umbrella Goods", Email: "hello@umbrella.example.com"},
}

var productNouns = []string{"Widget", "Gadget", "Sprocket", "Gizmo", "Flange", "Bracket", "Valve", "Coupler"}

var productAdjectives = []string{"Standard", "Deluxe", "Compact", "Heavy Duty", "Mini"}

// ProductCount is how many products Run creates; more than a few pages at the default limit.
const ProductCount = 36

// Run seeds contacts then products. It is idempotent: rows that already exist
// (same contact name or product SKU) are skipped.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) (Stats, error) {
	if svcs.Contacts == nil || svcs.Products == nil {
		return Stats{}, errors.New("devseed: contact and product stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var stats Stats
	contactIDs, err := seedContactRows(ctx, svcs.Contacts, logger, &stats)
	if err != nil {
		return stats, err
	}

	failures := 0
	for _, req := range Products(contactIDs) {
		_, createErr := svcs.Products.Create(ctx, &req)
		switch {
		case createErr == nil:
			stats.ProductsCreated++
		case apperrors.IsConflict(createErr):
			stats.Skipped++
		default:
			logger.ErrorContext(ctx, "failed to create product", "sku", req.SKU, "error", createErr)
			failures++
		}
	}

	logger.InfoContext(ctx, "seed complete",
		"contacts_created", stats.ContactsCreated,
		"products_created", stats.ProductsCreated,
		"skipped", stats.Skipped,
	)
	if failures > 0 {
		return stats, fmt.Errorf("%d seed errors; check logs", failures)
	}
	return stats, nil
}

func seedContactRows(ctx context.Context, store ContactStore, logger *slog.Logger, stats *Stats) ([]int64, error) {
	ids := make([]int64, 0, len(seedContacts))
	for _, tmpl := range seedContacts {
		req := tmpl
		created, err := store.Create(ctx, &req)
		if err == nil {
			stats.ContactsCreated++
			logger.InfoContext(ctx, "created contact", "name", created.Name)
			ids = append(ids, created.ID)
			continue
		}
		if !apperrors.IsConflict(err) {
			return nil, fmt.Errorf("create contact %q: %w", tmpl.Name, err)
		}

		existing, err := findContact(ctx, store, tmpl.Name)
		if err != nil {
			return nil, err
		}
		stats.Skipped++
		ids = append(ids, existing.ID)
	}
	return ids, nil
}

func findContact(ctx context.Context, store ContactStore, name string) (*model.Contact, error) {
	found, err := store.List(ctx, model.ContactListOptions{Search: name, Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("look up contact %q: %w", name, err)
	}
	for i := range found {
		if strings.EqualFold(found[i].Name, name) {
			return &found[i], nil
		}
	}
	return nil, fmt.Errorf("contact %q conflicts but was not found", name)
}

// Products returns the deterministic product set. Every fourth product has no contact.
func Products(contactIDs []int64) []model.CreateProductRequest {
	out := make([]model.CreateProductRequest, 0, ProductCount)
	for i := range ProductCount {
		noun := productNouns[i%len(productNouns)]
		adj := productAdjectives[(i/len(productNouns))%len(productAdjectives)]
		req := model.CreateProductRequest{
			Name:        adj + " " + noun,
			SKU:         fmt.Sprintf("DEV-%04d", i+1),
			Description: fmt.Sprintf("%s %s for local development", strings.ToLower(adj), strings.ToLower(noun)),
			Price:       decimal.New(int64(499+i*250), -2),
			Currency:    "USD",
			Stock:       (i * 7) % 50,
		}
		if len(contactIDs) > 0 && i%4 != 3 {
			id := contactIDs[i%len(contactIDs)]
			req.ContactID = &id
		}
		out = append(out, req)
	}
	return out
}
