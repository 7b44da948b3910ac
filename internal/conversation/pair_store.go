package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/pairhub/internal/observe"
	"github.com/suPer8Hu/pairhub/internal/pairing"
)

type PairStore struct {
	db      *gorm.DB
	obs     *observe.Observer
	schemes []Scheme
}

type PairStoreOption func(*PairStore)

// WithScheme appends an identity scheme after the defaults.
func WithScheme(s Scheme) PairStoreOption {
	return func(p *PairStore) { p.schemes = append(p.schemes, s) }
}

func NewPairStore(db *gorm.DB, obs *observe.Observer, opts ...PairStoreOption) *PairStore {
	p := &PairStore{db: db, obs: obs, schemes: DefaultSchemes()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (r *PairStore) lookup(ctx context.Context, column, value string) (*DevicePair, error) {
	var p DevicePair
	if err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOrCreate returns the stored pair for two devices, creating it on first
// use. Existing rows are returned as-is, whichever scheme matched them.
func (r *PairStore) FindOrCreate(ctx context.Context, deviceA, deviceB any) (*DevicePair, error) {
	for _, s := range r.schemes {
		if s.FromDevices == nil {
			continue
		}
		key := s.FromDevices(deviceA, deviceB)
		p, err := r.lookup(ctx, s.Column, key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.obs.Log().Warn().Str("scheme", s.Name).Str("key", key).Err(err).Msg("pair lookup failed")
		}
	}

	tempID, err := pairing.NewTempPairID()
	if err != nil {
		return nil, fmt.Errorf("conversation: FindOrCreate temp id: %w", err)
	}
	row := &DevicePair{
		ID:         pairing.PairID(deviceA, deviceB),
		DeviceA:    pairing.String(deviceA),
		DeviceB:    pairing.String(deviceB),
		PairHash:   pairing.LegacyHash(deviceA, deviceB),
		TempPairID: tempID,
	}

	// The insert is the serialization point for concurrent creators: a
	// conflicting id leaves the first row in place and we return that.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, fmt.Errorf("conversation: FindOrCreate insert: %w", err)
	}

	stored, err := r.lookup(ctx, "id", row.ID)
	if err != nil {
		return nil, fmt.Errorf("conversation: FindOrCreate read back: %w", err)
	}
	return stored, nil
}

// GetByIdentifier resolves a canonical id, legacy temp id or legacy hash.
// Store errors are logged and reported as a miss.
func (r *PairStore) GetByIdentifier(ctx context.Context, identifier string) (*DevicePair, bool) {
	if identifier == "" {
		return nil, false
	}
	for _, s := range r.schemes {
		p, err := r.lookup(ctx, s.Column, identifier)
		if err == nil {
			return p, true
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.obs.Log().Warn().Str("scheme", s.Name).Str("identifier", identifier).Err(err).Msg("pair lookup failed")
		}
	}
	return nil, false
}

// ListAll returns every pair, newest first. Errors yield an empty list.
func (r *PairStore) ListAll(ctx context.Context) []DevicePair {
	pairs := []DevicePair{}
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&pairs).Error; err != nil {
		r.obs.Log().Warn().Err(err).Msg("list device pairs failed")
		return []DevicePair{}
	}
	return pairs
}
