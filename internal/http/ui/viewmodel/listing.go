package viewmodel

import (
	"strconv"

	"github.com/target/mmk-product-admin/internal/domain/model"
)

// ContactOption is one entry of the contact filter.
type ContactOption struct {
	Value    string
	Label    string
	Selected bool
}

// ProductRow is one rendered table row.
type ProductRow struct {
	ID    int64
	Cells []string
}

// ProductListing is the data behind the products page and its listing fragment.
type ProductListing struct {
	Layout
	Columns    []string
	Rows       []ProductRow
	Pagination Pagination
	Loading    bool
	Contacts   []ContactOption
	// SelectedContact is the active contact filter value, "" when unfiltered.
	SelectedContact string
}

// LayoutData implements LayoutProvider.
func (p *ProductListing) LayoutData() *Layout { return &p.Layout }

// ContactOptions builds the filter options, marking selected as chosen.
// A selected value missing from contacts is kept as its own option.
func ContactOptions(contacts []model.Contact, selected string) []ContactOption {
	out := make([]ContactOption, 0, len(contacts)+1)
	found := selected == ""
	for _, c := range contacts {
		v := strconv.FormatInt(c.ID, 10)
		label := c.Name
		if label == "" {
			label = v
		}
		sel := v == selected
		found = found || sel
		out = append(out, ContactOption{Value: v, Label: label, Selected: sel})
	}
	if !found {
		out = append(out, ContactOption{Value: selected, Label: "Contact " + selected, Selected: true})
	}
	return out
}
