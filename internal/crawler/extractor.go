package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rivalworks/rivalaudit/internal/domain"
)

// nonContentSelectors lists elements stripped before counting body words.
const nonContentSelectors = "script, style, noscript"

// phonePattern matches North American phone number shapes in page text.
var phonePattern = regexp.MustCompile(`(\+?1[\s.-]?)?\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}`)

// addressPattern matches a street-address shape: a number followed by a
// street name and a common suffix.
var addressPattern = regexp.MustCompile(
	`(?i)\b\d{1,5}\s+[A-Za-z0-9.\s]{2,40}\s(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|suite)\b`,
)

// EvidenceExtractor parses fetched HTML into a page evidence snapshot.
type EvidenceExtractor struct{}

// NewEvidenceExtractor creates a new evidence extractor.
func NewEvidenceExtractor() *EvidenceExtractor {
	return &EvidenceExtractor{}
}

// Extract parses HTML and fills the evidence fields of a page snapshot.
// finalURL is the post-redirect URL, used to resolve relative links and
// to decide the HTTPS signal.
func (e *EvidenceExtractor) Extract(ev *domain.PageEvidence, finalURL string, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	base, baseErr := url.Parse(finalURL)
	if baseErr != nil {
		return fmt.Errorf("parse final url: %w", baseErr)
	}

	ev.Title = strings.TrimSpace(doc.Find("title").First().Text())
	ev.MetaDescription = metaContent(doc, "meta[name='description']")
	ev.CanonicalURL = attrOf(doc, "link[rel='canonical']", "href")
	ev.HTTPS = base.Scheme == "https"

	ev.H1Count = doc.Find("h1").Length()
	ev.H2Count = doc.Find("h2").Length()
	ev.HasNav = doc.Find("nav, [role='navigation']").Length() > 0
	ev.HasContactForm = doc.Find("form").Length() > 0

	countImages(doc, ev)
	countText(doc, ev)
	collectLinks(doc, base, ev)

	return nil
}

// metaContent returns the trimmed content attribute of the first match.
func metaContent(doc *goquery.Document, selector string) string {
	if content, exists := doc.Find(selector).Attr("content"); exists {
		return strings.TrimSpace(content)
	}
	return ""
}

// attrOf returns the trimmed named attribute of the first match.
func attrOf(doc *goquery.Document, selector, attr string) string {
	if val, exists := doc.Find(selector).Attr(attr); exists {
		return strings.TrimSpace(val)
	}
	return ""
}

// countImages records image totals and how many are missing alt text.
func countImages(doc *goquery.Document, ev *domain.PageEvidence) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		ev.ImageCount++
		if alt, exists := s.Attr("alt"); !exists || strings.TrimSpace(alt) == "" {
			ev.ImagesMissingAlt++
		}
	})
}

// countText records body word count, paragraph metrics, and the phone and
// address signals extracted from visible text.
func countText(doc *goquery.Document, ev *domain.PageEvidence) {
	totalParagraphWords := 0
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		words := len(strings.Fields(s.Text()))
		if words == 0 {
			return
		}
		ev.ParagraphCount++
		totalParagraphWords += words
	})
	if ev.ParagraphCount > 0 {
		ev.AvgParagraphWords = totalParagraphWords / ev.ParagraphCount
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return
	}
	stripped := body.Clone()
	stripped.Find(nonContentSelectors).Remove()
	text := stripped.Text()

	ev.WordCount = len(strings.Fields(text))
	ev.HasPhone = phonePattern.MatchString(text)
	ev.HasAddress = addressPattern.MatchString(text)

	// tel: links count as a phone signal even without visible digits.
	if !ev.HasPhone && doc.Find("a[href^='tel:']").Length() > 0 {
		ev.HasPhone = true
	}
}

// collectLinks resolves anchors against the page URL and partitions them
// into same-site and external links. Fragments and non-HTTP schemes are
// skipped.
func collectLinks(doc *goquery.Document, base *url.URL, ev *domain.PageEvidence) {
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		normalized, normErr := NormalizeURL(resolved.String())
		if normErr != nil {
			return
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}

		if SameSite(base.String(), normalized) {
			ev.InternalLinks = append(ev.InternalLinks, normalized)
		} else {
			ev.ExternalLinks = append(ev.ExternalLinks, normalized)
		}
	})
}
