package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/pagination"
)

type profitLookup interface {
	ProfitPercentages(ctx context.Context, codes []string) (map[string]decimal.Decimal, error)
}

type normalizer interface {
	Normalize(ctx context.Context, rows []models.Order) []NormalizedOrder
}

// ReportService serves the operator views of the ledger.
type ReportService interface {
	Report(ctx context.Context) (Report, error)
	List(ctx context.Context, params ListParams) ([]NormalizedOrder, *pagination.Cursor, error)
	// Invalidate drops the cached report on every service sharing the same
	// Generations, so the next read rebuilds it.
	Invalidate(ctx context.Context) error
}

type reportService struct {
	repo       Repository
	normalizer normalizer
	profits     profitLookup
	generations Generations
	ttl         time.Duration
	now         func() time.Time

	mu         sync.Mutex
	cached     *Report
	expiresAt  time.Time
	generation int64
}

// NewReportService builds a report service that caches the aggregate for ttl.
// A zero ttl disables caching. A nil generations keeps invalidation local to
// this process.
func NewReportService(repo Repository, normalizer normalizer, profits profitLookup, generations Generations, ttl time.Duration) (ReportService, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer required")
	}
	if profits == nil {
		return nil, fmt.Errorf("profit lookup required")
	}
	if generations == nil {
		generations = &LocalGenerations{}
	}
	return &reportService{
		repo:        repo,
		normalizer:  normalizer,
		profits:     profits,
		generations: generations,
		ttl:         ttl,
		now:         time.Now,
	}, nil
}

// Report returns a copy the caller may modify.
func (s *reportService) Report(ctx context.Context) (Report, error) {
	if s.ttl <= 0 {
		return s.build(ctx)
	}
	generation, err := s.generations.Current(ctx)
	if err != nil {
		// without the shared generation a cached copy may be stale
		return s.build(ctx)
	}

	s.mu.Lock()
	if s.cached != nil && s.generation == generation && s.now().Before(s.expiresAt) {
		report := s.cached.clone()
		s.mu.Unlock()
		return report, nil
	}
	s.mu.Unlock()

	report, err := s.build(ctx)
	if err != nil {
		return Report{}, err
	}

	// the generation was read before the build, so an Invalidate racing with
	// it makes the next read rebuild
	s.mu.Lock()
	cached := report.clone()
	s.cached = &cached
	s.generation = generation
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()
	return report, nil
}

func (s *reportService) build(ctx context.Context) (Report, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	normalized := s.normalizer.Normalize(ctx, rows)

	seen := map[string]struct{}{}
	var codes []string
	for _, order := range normalized {
		key := PromoKeyOf(order.PromoCode)
		if key == NoPromotionKey {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		codes = append(codes, key)
	}
	rates, err := s.profits.ProfitPercentages(ctx, codes)
	if err != nil {
		return Report{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion profit rates")
	}
	return Aggregate(normalized, rates), nil
}

func (s *reportService) List(ctx context.Context, params ListParams) ([]NormalizedOrder, *pagination.Cursor, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return s.normalizer.Normalize(ctx, rows), next, nil
}

func (s *reportService) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	if err := s.generations.Bump(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate order report")
	}
	return nil
}

func (r Report) clone() Report {
	out := r
	if r.Buckets == nil {
		return out
	}
	out.Buckets = make([]Bucket, len(r.Buckets))
	for i, bucket := range r.Buckets {
		if bucket.ProfitPercentage != nil {
			pct := *bucket.ProfitPercentage
			bucket.ProfitPercentage = &pct
		}
		groups := make([]CustomerGroup, len(bucket.Groups))
		for j, group := range bucket.Groups {
			orders := make([]NormalizedOrder, len(group.Orders))
			for k, order := range group.Orders {
				if order.Items != nil {
					items := make([]CanonicalItem, len(order.Items))
					copy(items, order.Items)
					order.Items = items
				}
				orders[k] = order
			}
			group.Orders = orders
			groups[j] = group
		}
		bucket.Groups = groups
		out.Buckets[i] = bucket
	}
	return out
}
