package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rivalworks/rivalaudit/internal/domain"
)

func TestClassifyPageType(t *testing.T) {
	tests := []struct {
		url  string
		want domain.PageType
	}{
		{"https://example.com/", domain.PageTypeHomepage},
		{"https://example.com", domain.PageTypeHomepage},
		{"https://example.com/index.html", domain.PageTypeHomepage},
		{"https://example.com/contact", domain.PageTypeContact},
		{"https://example.com/contact-us", domain.PageTypeContact},
		{"https://example.com/about/contact", domain.PageTypeContact},
		{"https://example.com/services", domain.PageTypeService},
		{"https://example.com/services/plumbing", domain.PageTypeService},
		{"https://example.com/what-we-do", domain.PageTypeService},
		{"https://example.com/locations/toronto", domain.PageTypeLocation},
		{"https://example.com/find-us", domain.PageTypeLocation},
		{"https://example.com/service-areas/north-york", domain.PageTypeServiceArea},
		{"https://example.com/areas-we-serve", domain.PageTypeServiceArea},
		{"https://example.com/blog/some-post", domain.PageTypeGeneric},
		{"https://example.com/about", domain.PageTypeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPageType(tt.url))
		})
	}
}

// service-areas must not fall through to the bare "service" keyword.
func TestClassifyPageTypePriority(t *testing.T) {
	assert.Equal(t, domain.PageTypeServiceArea,
		ClassifyPageType("https://example.com/service-areas"))
	assert.Equal(t, domain.PageTypeContact,
		ClassifyPageType("https://example.com/services/contact"))
}
