package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
	"github.com/target/mmk-product-admin/internal/service"
)

// ProductCatalog is the local listing backend plus the admin write operations.
type ProductCatalog interface {
	core.ListingBackend
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
	CreateContact(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error)
}

var _ ProductCatalog = (*service.ProductService)(nil)

// ProductHandlers serves the listing backend as JSON.
type ProductHandlers struct {
	Svc    ProductCatalog
	Logger *slog.Logger
}

func (h *ProductHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// List returns one page of products in the {results,next,previous,count} envelope.
// GET /api/products?paginate=true&contact=&limit=&offset=.
func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	q, _ := model.ParseProductQuery(r.URL.Query())
	page, err := h.Svc.ListProducts(r.Context(), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// Get returns a single product.
// GET /api/products/{id}.
func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Create stores a product.
// POST /api/products.
func (h *ProductHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.CreateProduct(r.Context(), &req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// ListContacts returns the contacts offered by the filter.
// GET /api/contacts?search=&limit=&offset=.
func (h *ProductHandlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	opts := model.ContactListOptions{Search: r.URL.Query().Get("search")}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: string(apperrors.ErrCodeValidation),
				Err:     errors.New(name + " must be a non-negative integer"),
			})
			return
		}
		*dst = n
	}

	contacts, err := h.Svc.ListContacts(r.Context(), opts)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": contacts, "count": len(contacts)})
}

// CreateContact stores a contact.
// POST /api/contacts.
func (h *ProductHandlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req model.CreateContactRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	c, err := h.Svc.CreateContact(r.Context(), &req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (h *ProductHandlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "product api request failed",
			"path", r.URL.Path, "method", r.Method, "error", err)
	}
	WriteAppError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_id",
			Err:     errors.New("id must be a positive integer"),
		})
		return 0, false
	}
	return id, true
}
