package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/pairhub/internal/observe"
)

// MaxSummariesPerPair is how many summaries survive each save.
const MaxSummariesPerPair = 3

// DefaultSummaryLimit is used by GetLatest when limit <= 0.
const DefaultSummaryLimit = 3

type SummaryStore struct {
	db   *gorm.DB
	obs  *observe.Observer
	keep int
}

func NewSummaryStore(db *gorm.DB, obs *observe.Observer) *SummaryStore {
	return &SummaryStore{db: db, obs: obs, keep: MaxSummariesPerPair}
}

// Save inserts a summary and then reaps old ones for the pair. The save
// succeeds once the insert commits; a failed reap only leaves extra rows
// until the next save.
func (r *SummaryStore) Save(ctx context.Context, pairID string, in SummaryInput) (uint64, error) {
	row := &Summary{
		PairID:   pairID,
		Noidung:  in.Noidung,
		Hoancanh: in.Hoancanh,
		SoCau:    in.SoCau,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return 0, fmt.Errorf("conversation: Save: %w", err)
	}

	if n, err := r.Reap(ctx, pairID); err != nil {
		r.obs.Log().Warn().Str("pair_id", pairID).Err(err).Msg("summary reap failed")
	} else if n > 0 {
		r.obs.Log().Info().Str("pair_id", pairID).Int("deleted", n).Msg("old summaries reaped")
	}
	return row.ID, nil
}

// Reap deletes every summary of the pair beyond the newest MaxSummariesPerPair.
// Only ids read here are deleted, so rows committed after the read survive.
// Concurrent reaps may target the same ids; deleting a missing row is fine.
func (r *SummaryStore) Reap(ctx context.Context, pairID string) (int, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&Summary{}).
		Where("pair_id = ?", pairID).
		Order("created_at DESC").
		Order("id DESC").
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("conversation: Reap list: %w", err)
	}
	if len(ids) <= r.keep {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Where("id IN ?", ids[r.keep:]).Delete(&Summary{})
	if res.Error != nil {
		return 0, fmt.Errorf("conversation: Reap delete: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// GetLatest returns up to limit summaries for the pair, newest first.
func (r *SummaryStore) GetLatest(ctx context.Context, pairID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	out := []Summary{}
	if err := r.db.WithContext(ctx).
		Where("pair_id = ?", pairID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("conversation: GetLatest: %w", err)
	}
	return out, nil
}

// Latest returns the newest summary for the pair. Errors are logged and
// reported as a miss.
func (r *SummaryStore) Latest(ctx context.Context, pairID string) (*Summary, bool) {
	var s Summary
	err := r.db.WithContext(ctx).
		Where("pair_id = ?", pairID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&s).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.obs.Log().Warn().Str("pair_id", pairID).Err(err).Msg("latest summary lookup failed")
		}
		return nil, false
	}
	return &s, true
}

// Delete removes one summary and reports whether it existed.
func (r *SummaryStore) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&Summary{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("conversation: Delete: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
