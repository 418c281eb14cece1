package database

import (
	"reflect"
	"testing"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name      string
		opts      *ListQueryOptions
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "basic select",
			opts:      NewListQueryOptions("products"),
			wantQuery: `SELECT * FROM "products"`,
		},
		{
			name:      "qualified columns",
			opts:      NewListQueryOptions("products", WithColumns("products.id", "name")),
			wantQuery: `SELECT "products"."id", "name" FROM "products"`,
		},
		{
			name: "listing page",
			opts: NewListQueryOptions("product_listing",
				WithColumns("id", "name"),
				WithCondition(WhereCond("contact_id", Equal, int64(5))),
				WithOrderBy("asc", "id"),
				WithLimit(10),
				WithOffset(20),
			),
			wantQuery: `SELECT "id", "name" FROM "product_listing" WHERE "contact_id" = $1 ORDER BY "id" ASC LIMIT $2 OFFSET $3`,
			wantArgs:  []any{int64(5), 10, 20},
		},
		{
			name: "count ignores paging",
			opts: NewListQueryOptions("product_listing",
				WithCountOnly(),
				WithCondition(WhereCond("contact_id", Equal, int64(5))),
				WithLimit(10),
			),
			wantQuery: `SELECT COUNT(*) FROM "product_listing" WHERE "contact_id" = $1`,
			wantArgs:  []any{int64(5)},
		},
		{
			name: "in and ilike",
			opts: NewListQueryOptions("contacts",
				WithCondition(WhereCond("id", In, []int64{1, 2})),
				WithCondition(WhereCond("name", ILike, "%acme%")),
				WithCondition(WhereCond("id", In, []int64{})),
			),
			wantQuery: `SELECT * FROM "contacts" WHERE "id" IN ($1, $2) AND "name" ILIKE $3`,
			wantArgs:  []any{int64(1), int64(2), "%acme%"},
		},
		{
			name: "is null and invalid direction",
			opts: NewListQueryOptions("products",
				WithCondition(WhereCond("contact_id", IsNull, nil)),
				WithOrderBy("sideways", "name", "id"),
				WithLimit(0),
			),
			wantQuery: `SELECT * FROM "products" WHERE "contact_id" IS NULL ORDER BY "name", "id" LIMIT $1`,
			wantArgs:  []any{0},
		},
		{
			name:      "injection in identifiers is quoted",
			opts:      NewListQueryOptions(`products"; DROP TABLE x; --`),
			wantQuery: `SELECT * FROM "products""; DROP TABLE x; --"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := BuildListQuery(tt.opts)
			if query != tt.wantQuery {
				t.Errorf("query = %q, want %q", query, tt.wantQuery)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildListQuery_Nil(t *testing.T) {
	query, args := BuildListQuery(nil)
	if query != "" || args != nil {
		t.Errorf("BuildListQuery(nil) = %q, %v", query, args)
	}
}
