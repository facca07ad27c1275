package lookup

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"glutenfree/internal/model"
	"glutenfree/internal/repository"
)

// Index maps EANs to products loaded from a JSONL export.
type Index struct {
	byEAN   map[string]*model.Product
	Skipped int
}

func NewIndex() *Index {
	return &Index{byEAN: make(map[string]*model.Product)}
}

// Add indexes p under its EAN. Products without one are ignored. A later
// product with the same EAN replaces the earlier one.
func (ix *Index) Add(p *model.Product) bool {
	ean := NormalizeEAN(p.EAN())
	if ean == "" {
		return false
	}
	ix.byEAN[ean] = p
	return true
}

func (ix *Index) Find(ean string) (*model.Product, bool) {
	p, ok := ix.byEAN[NormalizeEAN(ean)]
	return p, ok
}

func (ix *Index) Len() int {
	return len(ix.byEAN)
}

func LoadIndex(r io.Reader) (*Index, error) {
	ix := NewIndex()
	skipped, err := repository.ReadJSONL(r, func(p *model.Product) error {
		ix.Add(p)
		return nil
	})
	ix.Skipped = skipped
	if err != nil {
		return nil, err
	}
	return ix, nil
}

func LoadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return LoadIndex(f)
}

// NormalizeEAN strips all whitespace; scanners often add some around the code.
func NormalizeEAN(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}
