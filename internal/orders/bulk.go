package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/devicehub-backend/pkg/db/models"
	"github.com/angelmondragon/devicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/devicehub-backend/pkg/errors"
	"github.com/angelmondragon/devicehub-backend/pkg/logger"
	"github.com/angelmondragon/devicehub-backend/pkg/metrics"
)

const (
	bulkActionStatus = "status"
	bulkActionDelete = "delete"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// BulkMutator applies a status change or deletion to every order wrapped by
// the selected customer groups, all or nothing.
type BulkMutator interface {
	SetStatus(ctx context.Context, keys []GroupKey, status enums.OrderStatus) (BulkResult, error)
	Delete(ctx context.Context, keys []GroupKey) (BulkResult, error)
}

// BulkResult reports what a bulk mutation touched.
type BulkResult struct {
	Groups   int         `json:"groups"`
	OrderIDs []uuid.UUID `json:"order_ids"`
	Affected int64       `json:"affected"`
}

// MissingGroupsDetails is attached when selected groups no longer exist.
type MissingGroupsDetails struct {
	Missing []GroupKey `json:"missing"`
}

type bulkMutator struct {
	repo    Repository
	tx      txRunner
	cache   cacheInvalidator
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewBulkMutator builds a bulk mutator. cache is invalidated after every
// successful mutation.
func NewBulkMutator(repo Repository, tx txRunner, cache cacheInvalidator, m *metrics.OrderMetrics, logg *logger.Logger) (BulkMutator, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cache == nil {
		return nil, fmt.Errorf("report cache required")
	}
	return &bulkMutator{repo: repo, tx: tx, cache: cache, metrics: m, logg: logg}, nil
}

func (b *bulkMutator) SetStatus(ctx context.Context, keys []GroupKey, status enums.OrderStatus) (BulkResult, error) {
	if !status.IsValid() {
		return BulkResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	return b.apply(ctx, bulkActionStatus, keys, func(repo Repository, ids []uuid.UUID) (int64, error) {
		return repo.UpdateStatus(ctx, ids, status)
	})
}

func (b *bulkMutator) Delete(ctx context.Context, keys []GroupKey) (BulkResult, error) {
	return b.apply(ctx, bulkActionDelete, keys, func(repo Repository, ids []uuid.UUID) (int64, error) {
		return repo.Delete(ctx, ids)
	})
}

func (b *bulkMutator) apply(ctx context.Context, action string, keys []GroupKey, mutate func(Repository, []uuid.UUID) (int64, error)) (BulkResult, error) {
	keys = dedupeKeys(keys)
	if len(keys) == 0 {
		return BulkResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one customer group is required")
	}

	var result BulkResult
	err := b.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := b.repo.WithTx(tx)
		rows, err := repo.ListAll(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
		}

		ids, missing := resolveGroups(rows, keys)
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer group not found").
				WithDetails(MissingGroupsDetails{Missing: missing})
		}

		affected, err := mutate(repo, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeBulkMutation, err, fmt.Sprintf("bulk %s failed", action))
		}
		if affected != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodeBulkMutation,
				fmt.Sprintf("bulk %s touched %d of %d orders", action, affected, len(ids)))
		}
		result = BulkResult{Groups: len(keys), OrderIDs: ids, Affected: affected}
		return nil
	})
	if err != nil {
		b.metrics.IncBulkMutation(action, "failure")
		if b.logg != nil {
			logCtx := b.logg.WithFields(ctx, map[string]any{"action": action, "groups": len(keys)})
			b.logg.Error(logCtx, "bulk order mutation failed", err)
		}
		if pkgerrors.As(err) == nil {
			return BulkResult{}, pkgerrors.Wrap(pkgerrors.CodeBulkMutation, err, fmt.Sprintf("bulk %s failed", action))
		}
		return BulkResult{}, err
	}

	if err := b.cache.Invalidate(ctx); err != nil && b.logg != nil {
		b.logg.Error(b.logg.WithField(ctx, "action", action), "order report invalidation failed", err)
	}
	b.metrics.IncBulkMutation(action, "success")
	return result, nil
}

// resolveGroups maps each key to the ids of its orders and lists keys that
// match no order.
func resolveGroups(rows []models.Order, keys []GroupKey) ([]uuid.UUID, []GroupKey) {
	byKey := map[GroupKey][]uuid.UUID{}
	for _, row := range rows {
		key := GroupKeyOfRow(row)
		byKey[key] = append(byKey[key], row.ID)
	}
	var ids []uuid.UUID
	var missing []GroupKey
	for _, key := range keys {
		matched, ok := byKey[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		ids = append(ids, matched...)
	}
	return ids, missing
}

func dedupeKeys(keys []GroupKey) []GroupKey {
	seen := map[GroupKey]struct{}{}
	out := make([]GroupKey, 0, len(keys))
	for _, key := range keys {
		key.PromoKey = normalizePromoKey(key.PromoKey)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func normalizePromoKey(key string) string {
	if key == "" || key == NoPromotionKey {
		return NoPromotionKey
	}
	return PromoKeyOf(&key)
}
