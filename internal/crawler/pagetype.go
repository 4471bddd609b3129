package crawler

import (
	"net/url"
	"strings"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

// Keyword sets for path-based page type classification. Checked in
// priority order: contact before service, service-area before location
// and service, so "service-areas/..." never matches the bare "service"
// keyword first.
var (
	contactKeywords     = []string{"contact", "contact-us", "get-in-touch", "request-a-quote"}
	serviceAreaKeywords = []string{"service-area", "service-areas", "areas-we-serve", "areas-served", "coverage"}
	locationKeywords    = []string{"location", "locations", "our-offices", "directions", "find-us"}
	serviceKeywords     = []string{"service", "services", "what-we-do", "our-work", "solutions"}
)

// ClassifyPageType maps a URL to one of the six page types using path
// keyword heuristics. The seed URL's root path is the homepage.
func ClassifyPageType(rawURL string) domain.PageType {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.PageTypeGeneric
	}

	p := strings.ToLower(strings.Trim(parsed.Path, "/"))
	if p == "" || p == "index.html" || p == "index.php" {
		return domain.PageTypeHomepage
	}

	segments := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '.'
	})

	switch {
	case matchesAny(segments, contactKeywords):
		return domain.PageTypeContact
	case matchesAny(segments, serviceAreaKeywords):
		return domain.PageTypeServiceArea
	case matchesAny(segments, locationKeywords):
		return domain.PageTypeLocation
	case matchesAny(segments, serviceKeywords):
		return domain.PageTypeService
	}
	return domain.PageTypeGeneric
}

// matchesAny reports whether any path segment equals one of the keywords.
func matchesAny(segments, keywords []string) bool {
	for _, segment := range segments {
		for _, keyword := range keywords {
			if segment == keyword {
				return true
			}
		}
	}
	return false
}
