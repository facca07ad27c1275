package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"glutenfree/internal/model"
)

const (
	titleSelector       = "h2.product_title"
	descriptionSelector = "div.woocommerce-product-details__short-description"
	detailsSelector     = "li.description_tab"
	imagePrefix         = "/image/product"
)

// ParseProduct fetches a product detail page and extracts its record.
func (s *Scraper) ParseProduct(ctx context.Context, productURL string) (*model.Product, error) {
	doc, err := s.client.FetchDocument(ctx, productURL)
	if err != nil {
		return nil, err
	}
	if s.strict && doc.Find(titleSelector).Length() == 0 {
		return nil, &MissingElementError{URL: productURL, Selector: titleSelector}
	}
	return parseProduct(doc, productURL, s.imageBase), nil
}

func parseProduct(doc *goquery.Document, productURL, imageBase string) *model.Product {
	product := &model.Product{URL: productURL}

	if title := doc.Find(titleSelector).First(); title.Length() > 0 {
		product.Title = model.StringPtr(strippedText(title, ""))
	}

	if desc := doc.Find(descriptionSelector).First(); desc.Length() > 0 {
		product.ShortDescription = model.StringPtr(strippedText(desc, "\n"))
	}

	if li := doc.Find(detailsSelector).First(); li.Length() > 0 {
		li.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strippedText(p, "")
			label, value, found := strings.Cut(text, ":")
			if !found {
				product.Details.AddNote(text)
				return
			}
			product.Details.Set(strings.TrimSpace(label), strings.TrimSpace(value))
		})

		if href, ok := li.Find("a[href]").First().Attr("href"); ok {
			product.Details.SetExternalLink(href)
		}
	}

	// Last matching image wins.
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if strings.HasPrefix(src, imagePrefix) {
			product.Image = model.StringPtr(imageBase + src)
		}
	})

	return product
}
