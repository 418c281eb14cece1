// Package columns evaluates the product table's configurable columns.
//
// A column set is written as "Label=expression;Label=expression" where each
// expression is JMESPath evaluated against the product's JSON form.
package columns

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/shopspring/decimal"

	"github.com/target/mmk-product-admin/internal/domain/model"
)

// Default is the column set used when none is configured.
const Default = "Name=name;SKU=sku;Price=price;Currency=currency;Stock=stock;Contact=contact.name"

// ErrEmptySpec is returned when a column spec holds no columns.
var ErrEmptySpec = errors.New("column spec is empty")

// Column is one table column.
type Column struct {
	Label string
	Expr  string
}

// Set is an ordered list of columns.
type Set []Column

// Parse validates spec and returns its columns in order.
func Parse(spec string) (Set, error) {
	var set Set
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, expr, ok := strings.Cut(part, "=")
		label, expr = strings.TrimSpace(label), strings.TrimSpace(expr)
		if !ok || label == "" || expr == "" {
			return nil, fmt.Errorf("column %q: want Label=expression", part)
		}
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("column %q: %w", label, err)
		}
		set = append(set, Column{Label: label, Expr: expr})
	}
	if len(set) == 0 {
		return nil, ErrEmptySpec
	}
	return set, nil
}

// MustParse is Parse for specs known at compile time.
func MustParse(spec string) Set {
	set, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return set
}

// Labels returns the column headings.
func (s Set) Labels() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Label
	}
	return out
}

// Row evaluates every column against p. A column whose expression fails renders empty
// and the first failure is returned alongside the row.
func (s Set) Row(p model.Product) ([]string, error) {
	doc, err := document(p)
	if err != nil {
		return make([]string, len(s)), err
	}
	cells := make([]string, len(s))
	var firstErr error
	for i, c := range s {
		v, evalErr := jmespath.Search(c.Expr, doc)
		if evalErr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("column %q: %w", c.Label, evalErr)
			}
			continue
		}
		cells[i] = format(v)
	}
	return cells, firstErr
}

// document converts p into the generic form JMESPath operates on.
func document(p model.Product) (any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return doc, nil
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return decimal.NewFromFloat(x).String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
