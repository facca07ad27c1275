package crawler

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	categoryMarker   = "/Products/Category?cid="
	productMarker    = "/Products/Details?id="
	productLinkClass = "auxshp-label"
)

// Categories fetches the catalogue root and returns every category page it
// links to, deduplicated and sorted.
func (s *Scraper) Categories(ctx context.Context) ([]string, error) {
	doc, err := s.client.FetchDocument(ctx, s.base.String())
	if err != nil {
		return nil, err
	}
	return extractCategories(doc, s.base), nil
}

// ProductLinks fetches a category page and returns its product links in
// document order. Links are resolved against the site root, not the category.
func (s *Scraper) ProductLinks(ctx context.Context, categoryURL string) ([]string, error) {
	doc, err := s.client.FetchDocument(ctx, categoryURL)
	if err != nil {
		return nil, err
	}
	return extractProductLinks(doc, s.base), nil
}

func extractCategories(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, categoryMarker) {
			return
		}
		seen[resolve(base, href)] = struct{}{}
	})

	categories := make([]string, 0, len(seen))
	for u := range seen {
		categories = append(categories, u)
	}
	sort.Strings(categories)
	return categories
}

func extractProductLinks(doc *goquery.Document, base *url.URL) []string {
	var products []string
	doc.Find("a." + productLinkClass + "[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, productMarker) {
			return
		}
		products = append(products, resolve(base, href))
	})
	return products
}

// resolve joins href onto base. Hrefs net/url rejects, such as ones with bad
// percent escapes, are joined as plain strings instead of being dropped.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err == nil {
		return base.ResolveReference(ref).String()
	}

	if strings.Contains(href, "://") {
		return href
	}
	root := base.Scheme + "://" + base.Host
	if strings.HasPrefix(href, "/") {
		return root + href
	}
	dir := "/"
	if i := strings.LastIndex(base.Path, "/"); i >= 0 {
		dir = base.Path[:i+1]
	}
	return root + dir + href
}
