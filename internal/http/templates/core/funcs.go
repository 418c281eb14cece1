// Package core provides the general-purpose template helpers.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyTime": FriendlyTime,
		"timeTag":      TimeTag,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"formatNumber": FormatNumber,
		"money":        Money,
		"truncateText": TruncateText,
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template set, already escaped
		return template.HTML(buf.String()), nil
	}
	return funcs
}

func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

// FriendlyTime renders a timestamp as "Jan 2, 2006 3:04 PM" in local time.
// Zero and unsupported values render empty.
func FriendlyTime(ts any) string {
	t0 := asTime(ts)
	if t0.IsZero() {
		return ""
	}
	return t0.Local().Format("Jan 2, 2006 3:04 PM")
}

// TimeTag renders a <time> element with an RFC 3339 datetime attribute.
func TimeTag(ts any) template.HTML {
	t0 := asTime(ts)
	if t0.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		t0.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t0.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(FriendlyTime(t0)),
	))
}

// FormatNumber formats an integer with comma thousands separators.
func FormatNumber(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case *int:
		if x == nil {
			return "0"
		}
		n = int64(*x)
	default:
		return fmt.Sprint(v)
	}
	neg := n < 0
	s := strconv.FormatInt(n, 10)
	if neg {
		s = s[1:]
	}
	s = groupThousands(s)
	if neg {
		return "-" + s
	}
	return s
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3)
	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}
	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Money formats a price with two decimals, grouped thousands and the currency code.
func Money(amount decimal.Decimal, currency string) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	out := sign + groupThousands(whole) + "." + frac
	if currency = strings.TrimSpace(currency); currency != "" {
		out += " " + currency
	}
	return out
}

// TruncateText truncates a string to a maximum number of runes, adding an ellipsis when cut.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
