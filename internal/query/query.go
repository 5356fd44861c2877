// Package query serves on-demand searches over stored records, limited by a
// daily per-requester quota.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/normalize"
)

const (
	DefaultLimit      = 5
	DefaultDailyLimit = 100
)

// Store is the persistence a Service needs.
type Store interface {
	model.RecordStore
	model.QuotaStore
}

// Request is one search. Empty or "All" filters match everything.
type Request struct {
	Country   string
	Field     string
	Requester string
}

// Result holds the matching records and the requester's quota usage for the
// day, counting this request.
type Result struct {
	Records   []model.Record
	Used      int
	Remaining int
}

// NoResults reports whether the search matched nothing.
func (r Result) NoResults() bool { return len(r.Records) == 0 }

// Service answers searches.
type Service struct {
	store      Store
	limit      int
	dailyLimit int
	loc        *time.Location
	logger     *slog.Logger
	countries  *normalize.CountryExtractor
	now        func() time.Time
}

// NewService creates a query service. Non-positive limits fall back to the
// defaults; a nil loc buckets days in time.Local.
func NewService(store Store, limit, dailyLimit int, loc *time.Location, logger *slog.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:      store,
		limit:      limit,
		dailyLimit: dailyLimit,
		loc:        loc,
		logger:     logger,
		countries:  normalize.NewCountryExtractor(),
		now:        time.Now,
	}
}

// Search charges one request against the requester's quota for today, then
// returns up to the configured number of the most recent matching records.
// It returns model.ErrQuotaExceeded once the daily limit is reached; a
// rejected request does not count.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	requester := strings.TrimSpace(req.Requester)
	if requester == "" {
		return Result{}, fmt.Errorf("search: requester is required")
	}

	day := s.now().In(s.loc).Format(time.DateOnly)
	allowed, used, err := s.store.ConsumeQuota(ctx, requester, day, s.dailyLimit)
	if err != nil {
		return Result{}, fmt.Errorf("search: checking quota: %w", err)
	}
	if !allowed {
		s.logger.Warn("daily quota exceeded", "requester", requester, "day", day, "used", used)
		return Result{Used: used}, fmt.Errorf("search for %s: %w", requester, model.ErrQuotaExceeded)
	}

	country := s.resolveCountry(req.Country)
	recs, err := s.store.QueryByFilter(ctx, model.SearchFilter{
		Country: country,
		Field:   req.Field,
		Limit:   s.limit,
	})
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	s.logger.Debug("search served",
		"requester", requester,
		"country", country,
		"field", req.Field,
		"results", len(recs),
		"used", used,
	)
	return Result{Records: recs, Used: used, Remaining: s.dailyLimit - used}, nil
}

// resolveCountry maps codes, alternative names and cities to the canonical
// country the normalizer stores. Anything it cannot place is searched as is.
func (s *Service) resolveCountry(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return v
	}
	if c := s.countries.Extract(v); c != model.CountryOther {
		return c
	}
	return v
}
