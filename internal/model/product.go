package model

import "strings"

// Product is one scraped catalogue entry, written as a single JSON line.
type Product struct {
	Title            *string `json:"title"`
	URL              string  `json:"url"`
	ShortDescription *string `json:"short_description"`
	Details          Details `json:"details"`
	Image            *string `json:"image"`
}

// EAN returns the barcode stored in the details table, or "".
func (p *Product) EAN() string {
	if p == nil {
		return ""
	}
	for _, key := range []string{"EAN", "ean", "Ean"} {
		if v, ok := p.Details.Get(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func StringPtr(s string) *string {
	return &s
}
