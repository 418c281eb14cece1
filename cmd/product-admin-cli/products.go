package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/target/mmk-product-admin/internal/adapters/productsapi"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/data"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/http/ui/columns"
	"github.com/target/mmk-product-admin/internal/service"
)

const defaultMaxPages = 50

type listOptions struct {
	contact string
	limit   int
	offset  int
	walk    pageWalk
	timeout time.Duration
}

type pageWalk struct {
	all      bool
	maxPages int
}

func newListProductsCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list-products",
		Short: "Print the product listing as a table using the configured columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			spec := cc.Config.Products.TableColumns
			if spec == "" {
				spec = columns.Default
			}
			cols, err := columns.Parse(spec)
			if err != nil {
				return fmt.Errorf("PRODUCTS_TABLE_COLUMNS: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			q := opts.query()
			if cc.Config.Products.UseRemoteAPI() {
				client, err := newRemoteLister(ctx, cc)
				if err != nil {
					return err
				}
				return listProducts(ctx, client, q, cols, opts.walk, cmd.OutOrStdout(), cc.Logger)
			}
			return withDatabase(ctx, cc, opts.timeout, func(ctx context.Context, db *sql.DB) error {
				return listProducts(ctx, newLocalLister(cc, db), q, cols, opts.walk, cmd.OutOrStdout(), cc.Logger)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.contact, "contact", "", "only list products of this contact ID")
	f.IntVar(&opts.limit, "limit", 0, "page size (0 uses the backend default)")
	f.IntVar(&opts.offset, "offset", 0, "index of the first product")
	f.BoolVar(&opts.walk.all, "all", false, "follow next links until the last page")
	f.IntVar(&opts.walk.maxPages, "max-pages", defaultMaxPages, "upper bound on pages fetched with --all")
	f.DurationVar(&opts.timeout, "timeout", time.Minute, "overall timeout")
	return cmd
}

func (o listOptions) query() model.ProductQuery {
	q := model.DefaultProductQuery()
	if c := strings.TrimSpace(o.contact); c != "" {
		q[model.QueryContact] = c
	}
	if o.limit > 0 {
		q[model.QueryLimit] = strconv.Itoa(o.limit)
	}
	if o.offset > 0 {
		q[model.QueryOffset] = strconv.Itoa(o.offset)
	}
	return q
}

func newRemoteLister(ctx context.Context, cc *commandContext) (*productsapi.Client, error) {
	p := cc.Config.Products
	return productsapi.NewClient(ctx, productsapi.Config{
		BaseURL:      p.APIURL,
		Timeout:      p.APITimeout,
		UserAgent:    "product-admin-cli",
		TokenURL:     p.TokenURL,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Scopes:       p.Scopes,
	})
}

func newLocalLister(cc *commandContext, db *sql.DB) *service.ProductService {
	return service.NewProductService(service.ProductServiceOptions{
		Products:  data.NewProductRepo(db),
		Contacts:  data.NewContactRepo(db),
		ListURL:   strings.TrimRight(cc.Config.HTTP.BaseURL, "/") + "/api/products",
		PageLimit: cc.Config.Products.PageLimit,
	})
}

// fetchRecorder keeps the last backend error, which the loader logs but does not return.
type fetchRecorder struct {
	core.ProductLister
	err error
}

func (r *fetchRecorder) ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	page, err := r.ProductLister.ListProducts(ctx, q)
	r.err = err
	return page, err
}

// logURL stands in for the address bar: each navigated query is logged.
type logURL struct {
	logger *slog.Logger
}

func (u logURL) SetQuery(q model.ProductQuery) {
	u.logger.Debug("following cursor", "query", q.Encode())
}

// listProducts loads the listing into a throwaway view and writes one table of
// products. With all set it keeps following the next cursor until it runs out,
// repeats, or maxPages is reached.
func listProducts(
	ctx context.Context,
	lister core.ProductLister,
	q model.ProductQuery,
	cols columns.Set,
	opts pageWalk,
	w io.Writer,
	logger *slog.Logger,
) error {
	if lister == nil {
		return errors.New("product lister is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	maxPages := max(opts.maxPages, 1)

	rec := &fetchRecorder{ProductLister: lister}
	listing, err := service.NewProductListing(service.ProductListingOptions{
		Products: rec,
		States:   core.NewMemoryViewStateStore(core.ViewStateConfig{}),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	viewID := uuid.NewString()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err = writeln(tw, strings.Join(cols.Labels(), "\t")); err != nil {
		return err
	}

	st, err := listing.LoadProducts(ctx, viewID, q)
	seen := map[string]struct{}{}
	total := 0
	for pages := 1; ; pages++ {
		if err != nil {
			return err
		}
		if rec.err != nil {
			return fmt.Errorf("list products: %w", rec.err)
		}
		if err = writeRows(tw, cols, st.Products); err != nil {
			return err
		}
		total += len(st.Products)

		next := st.Pagination.Next
		if !opts.all || next == nil || pages >= maxPages {
			break
		}
		if _, dup := seen[*next]; dup {
			logger.Warn("backend repeated a next cursor; stopping", "cursor", *next)
			break
		}
		seen[*next] = struct{}{}

		var moved bool
		st, moved, err = listing.HandleNext(ctx, viewID, next, logURL{logger: logger})
		if err == nil && !moved {
			break
		}
	}

	if err = tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d product(s) shown\n", total)
}

func writeRows(w io.Writer, cols columns.Set, products []model.Product) error {
	for i := range products {
		row, err := cols.Row(products[i])
		if err != nil {
			return fmt.Errorf("render product %d: %w", products[i].ID, err)
		}
		if err = writeln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}
