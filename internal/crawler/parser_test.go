package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

const productPage = `<html><body>
<img src="/images/logo.png">
<h2 class="product_title entry-title">
	Ajvar blagi 195 g
</h2>
<div class="woocommerce-product-details__short-description">
	<p>paprika (76%), plavi patlidžan (12%)</p>
	<p>Masti = 4 g</p>
</div>
<ul>
	<li class="description_tab">
		<p>EAN: 3850104022517</p>
		<p>Proizvođač: Podravka</p>
		<p>Izjava proizvođača</p>
		<p>Vrijeme: 10:30</p>
		<p><a href="https://www.podravka.hr/proizvod/ajvar-blagi/">Poveznica na web stranicu proizvođača</a></p>
	</li>
</ul>
<img src=" /image/product/404/first.png ">
<img src="/image/product/404/20240211123437_details.png">
<img src="/img/other.png">
</body></html>`

func TestParseProductExtractsFields(t *testing.T) {
	t.Parallel()

	p := parseProduct(mustDoc(t, productPage), "https://bezglutena.celivita.hr/Products/Details?id=404", "https://bezglutena.celivita.hr")

	if p.Title == nil || *p.Title != "Ajvar blagi 195 g" {
		t.Fatalf("title = %v", p.Title)
	}
	if p.URL != "https://bezglutena.celivita.hr/Products/Details?id=404" {
		t.Fatalf("url = %q", p.URL)
	}
	if p.ShortDescription == nil || *p.ShortDescription != "paprika (76%), plavi patlidžan (12%)\nMasti = 4 g" {
		t.Fatalf("short description = %v", p.ShortDescription)
	}
	if got := p.Details.Keys(); !reflect.DeepEqual(got, []string{"EAN", "Proizvođač", "notes", "Vrijeme", "external_link"}) {
		t.Fatalf("details keys = %v", got)
	}
	if v, _ := p.Details.Get("Vrijeme"); v != "10:30" {
		t.Fatalf("first colon should split, got %q", v)
	}
	wantNotes := []string{"Izjava proizvođača", "Poveznica na web stranicu proizvođača"}
	if !reflect.DeepEqual(p.Details.Notes(), wantNotes) {
		t.Fatalf("notes = %v", p.Details.Notes())
	}
	if p.Details.ExternalLink() != "https://www.podravka.hr/proizvod/ajvar-blagi/" {
		t.Fatalf("external link = %q", p.Details.ExternalLink())
	}
	if p.Image == nil || *p.Image != "https://bezglutena.celivita.hr/image/product/404/20240211123437_details.png" {
		t.Fatalf("image = %v", p.Image)
	}
	if p.EAN() != "3850104022517" {
		t.Fatalf("EAN = %q", p.EAN())
	}
}

func TestParseProductDetailsWeightAndNote(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<li class="description_tab"><p>Weight: 200g</p><p>Contains no gluten</p></li>`)
	p := parseProduct(doc, "u", "https://example.test")

	got, err := json.Marshal(p.Details)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"Weight":"200g","notes":["Contains no gluten"]}`; string(got) != want {
		t.Fatalf("details = %s want %s", got, want)
	}
}

func TestParseProductLastImageWins(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `<img src="/image/product/a.jpg"><img src="/image/product/b.jpg">`)
	p := parseProduct(doc, "u", "https://example.test")
	if p.Image == nil || *p.Image != "https://example.test/image/product/b.jpg" {
		t.Fatalf("image = %v", p.Image)
	}
}

func TestParseProductMissingElements(t *testing.T) {
	t.Parallel()

	p := parseProduct(mustDoc(t, `<html><body><h1>Nothing here</h1></body></html>`), "u", "https://example.test")
	if p.Title != nil {
		t.Fatalf("title should be nil, got %q", *p.Title)
	}
	if p.ShortDescription != nil {
		t.Fatalf("short description should be nil, got %q", *p.ShortDescription)
	}
	if p.Image != nil {
		t.Fatalf("image should be nil, got %q", *p.Image)
	}
	if p.Details.Len() != 0 {
		t.Fatalf("details should be empty, got %v", p.Details.Keys())
	}

	got, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"title":null,"url":"u","short_description":null,"details":{},"image":null}`; string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestParseProductStrictRequiresTitle(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/Products/Details?id=1": `<html><body><p>no title</p></body></html>`,
	})
	productURL := srv.URL + "/Products/Details?id=1"

	lenient := newTestScraper(t, srv.URL, nil)
	p, err := lenient.ParseProduct(context.Background(), productURL)
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if p.Title != nil {
		t.Fatal("expected nil title")
	}

	strict := newTestScraper(t, srv.URL, func(c *Config) { c.Strict = true })
	_, err = strict.ParseProduct(context.Background(), productURL)
	var missing *MissingElementError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingElementError, got %v", err)
	}
	if missing.Selector != titleSelector {
		t.Fatalf("selector = %q", missing.Selector)
	}
}
