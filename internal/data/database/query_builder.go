package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	GreaterThanOrEqual ConditionType = ">="
	LessThanOrEqual    ConditionType = "<="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	IsNull             ConditionType = "IS NULL"

	unset = -1
)

// Condition is a single WHERE predicate on a sanitized column.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a Condition.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// ListQueryOptions describes a single-table SELECT.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    []string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions creates options for table with LIMIT/OFFSET unset.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	o := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering columns and a direction applied to each.
func WithOrderBy(direction string, columns ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = columns
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly turns the query into SELECT COUNT(*).
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// ident quotes a possibly qualified identifier such as "table.column".
func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// BuildListQuery renders options into SQL and positional args.
// Identifiers are quoted; values are always passed as parameters.
//
//	q, args := BuildListQuery(NewListQueryOptions("product_listing",
//		WithColumns("id", "name"),
//		WithCondition(WhereCond("contact_id", Equal, 5)),
//		WithOrderBy("ASC", "id"),
//		WithLimit(10), WithOffset(20)))
func BuildListQuery(o *ListQueryOptions) (string, []any) {
	if o == nil {
		return "", nil
	}

	var b strings.Builder
	switch {
	case o.CountOnly:
		b.WriteString("SELECT COUNT(*)")
	case len(o.Columns) == 0:
		b.WriteString("SELECT *")
	default:
		cols := make([]string, len(o.Columns))
		for i, c := range o.Columns {
			cols[i] = ident(c)
		}
		b.WriteString("SELECT " + strings.Join(cols, ", "))
	}
	b.WriteString(" FROM " + ident(o.Table))

	var args []any
	var preds []string
	for _, c := range o.Conditions {
		pred, condArgs := renderCondition(c, len(args)+1)
		if pred == "" {
			continue
		}
		preds = append(preds, pred)
		args = append(args, condArgs...)
	}
	if len(preds) > 0 {
		b.WriteString(" WHERE " + strings.Join(preds, " AND "))
	}
	if o.CountOnly {
		return b.String(), args
	}

	if len(o.OrderBy) > 0 {
		dir := strings.ToUpper(o.OrderDir)
		if dir != "ASC" && dir != "DESC" {
			dir = ""
		}
		parts := make([]string, len(o.OrderBy))
		for i, c := range o.OrderBy {
			parts[i] = strings.TrimSpace(ident(c) + " " + dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if o.Limit != unset {
		args = append(args, o.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if o.Offset != unset {
		args = append(args, o.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func renderCondition(c Condition, next int) (string, []any) {
	if c.Field == "" {
		return "", nil
	}
	field := ident(c.Field)
	switch c.Type {
	case IsNull:
		return field + " IS NULL", nil
	case In:
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return "", nil
		}
		ph := make([]string, rv.Len())
		args := make([]any, rv.Len())
		for i := range rv.Len() {
			ph[i] = fmt.Sprintf("$%d", next+i)
			args[i] = rv.Index(i).Interface()
		}
		return fmt.Sprintf("%s IN (%s)", field, strings.Join(ph, ", ")), args
	case Equal, NotEqual, GreaterThan, LessThan, GreaterThanOrEqual, LessThanOrEqual, ILike:
		return fmt.Sprintf("%s %s $%d", field, c.Type, next), []any{c.Value}
	default:
		return "", nil
	}
}
