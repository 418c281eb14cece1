package httpx

// CurrentPage identifiers used by templates and navigation.
const (
	PageProducts = "products"
	PageError    = "error"
)

// Cookie names shared by the UI and auth handlers.
const (
	SessionCookieName = "session_id"
	ViewCookieName    = "product_view"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Listing fragment names rendered for htmx swaps.
const (
	listingTemplate = "product-listing"
	listingTargetID = "product-listing"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageProducts: "products-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to products-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "products-content"
}
