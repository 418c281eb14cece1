//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// QueryKey is a recognized product listing query parameter.
type QueryKey string

const (
	QueryContact  QueryKey = "contact"
	QueryLimit    QueryKey = "limit"
	QueryOffset   QueryKey = "offset"
	QueryPaginate QueryKey = "paginate"
)

// QueryKeys lists the recognized keys in URL order.
var QueryKeys = []QueryKey{QueryContact, QueryLimit, QueryOffset, QueryPaginate}

// Valid reports whether k is a recognized key.
func (k QueryKey) Valid() bool {
	switch k {
	case QueryContact, QueryLimit, QueryOffset, QueryPaginate:
		return true
	default:
		return false
	}
}

// ErrInvalidCursor is returned when a navigation cursor cannot be parsed as a URL.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// ProductQuery is the set of listing parameters sent to the backend and mirrored in the page URL.
// A missing key and an empty value are equivalent.
type ProductQuery map[QueryKey]string

// DefaultProductQuery holds the parameters every listing request carries.
func DefaultProductQuery() ProductQuery {
	return ProductQuery{QueryPaginate: "true"}
}

// ParseProductQuery keeps the recognized, non-empty keys of v.
// The names of any dropped unrecognized keys are returned sorted.
func ParseProductQuery(v url.Values) (ProductQuery, []string) {
	q := ProductQuery{}
	var ignored []string
	for name, values := range v {
		key := QueryKey(name)
		if !key.Valid() {
			ignored = append(ignored, name)
			continue
		}
		if len(values) == 0 {
			continue
		}
		if val := strings.TrimSpace(values[0]); val != "" {
			q[key] = val
		}
	}
	sort.Strings(ignored)
	return q, ignored
}

// ParseCursor extracts the listing query from a backend next/previous URL.
func ParseCursor(cursor string) (ProductQuery, error) {
	u, err := url.Parse(strings.TrimSpace(cursor))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	q, _ := ParseProductQuery(u.Query())
	return q, nil
}

// Merge returns a new query with the entries of over layered on top of q.
// Empty values in over do not clear values in q.
func (q ProductQuery) Merge(over ProductQuery) ProductQuery {
	out := make(ProductQuery, len(q)+len(over))
	for k, v := range q {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range over {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Values converts the query into url.Values with only non-empty entries.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	for _, k := range QueryKeys {
		if val := q[k]; val != "" {
			v.Set(string(k), val)
		}
	}
	return v
}

// Encode returns the canonical query string.
func (q ProductQuery) Encode() string {
	return q.Values().Encode()
}

// IsEmpty reports whether q has no non-empty entries.
func (q ProductQuery) IsEmpty() bool {
	for _, v := range q {
		if v != "" {
			return false
		}
	}
	return true
}

// Offset returns the numeric offset when present and parseable.
func (q ProductQuery) Offset() (int, bool) {
	raw, ok := q[QueryOffset]
	if !ok || raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Contact returns the contact filter value.
func (q ProductQuery) Contact() string {
	return q[QueryContact]
}
