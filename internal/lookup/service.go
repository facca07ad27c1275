package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"glutenfree/internal/model"
	"glutenfree/internal/observability"
)

var (
	ErrEmptyEAN = errors.New("ean is required")
	ErrNotFound = errors.New("product not found")
)

// Source names the backend that answered a lookup.
type Source string

const (
	SourceCache    Source = "cache"
	SourceIndex    Source = "index"
	SourcePostgres Source = "postgres"
	SourceNone     Source = "none"
)

type Cache interface {
	Get(ctx context.Context, ean string) (*model.Product, error)
	Set(ctx context.Context, ean string, p *model.Product) error
}

type Finder interface {
	FindByEAN(ctx context.Context, ean string) (*model.Product, error)
}

// Service resolves EANs against the cache, the JSONL index and Postgres, in
// that order. Any of the three may be nil.
type Service struct {
	Index   *Index
	Cache   Cache
	Store   Finder
	Log     *logrus.Logger
	Metrics *observability.Metrics
}

func (s *Service) Find(ctx context.Context, raw string) (*model.Product, Source, error) {
	ean := NormalizeEAN(raw)
	if ean == "" {
		return nil, SourceNone, ErrEmptyEAN
	}

	if s.Cache != nil {
		p, err := s.Cache.Get(ctx, ean)
		if err != nil {
			s.logger().WithError(err).WithField("ean", ean).Warn("cache read failed")
		} else if p != nil {
			s.Metrics.IncLookup(string(SourceCache))
			return p, SourceCache, nil
		}
	}

	if s.Index != nil {
		if p, ok := s.Index.Find(ean); ok {
			s.remember(ctx, ean, p)
			s.Metrics.IncLookup(string(SourceIndex))
			return p, SourceIndex, nil
		}
	}

	if s.Store != nil {
		p, err := s.Store.FindByEAN(ctx, ean)
		if err != nil {
			return nil, SourceNone, fmt.Errorf("find %s in postgres: %w", ean, err)
		}
		if p != nil {
			s.remember(ctx, ean, p)
			s.Metrics.IncLookup(string(SourcePostgres))
			return p, SourcePostgres, nil
		}
	}

	s.Metrics.IncLookup(string(SourceNone))
	return nil, SourceNone, ErrNotFound
}

func (s *Service) remember(ctx context.Context, ean string, p *model.Product) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, ean, p); err != nil {
		s.logger().WithError(err).WithField("ean", ean).Warn("cache write failed")
	}
}

func (s *Service) logger() *logrus.Logger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
