// Package plan implements the static subscription-tier registry.
//
// Tiers govern the coin reward multiplier (never XP), the daily mission
// quota, the store discount, and the hierarchy rank used to classify plan
// changes. The tier set is configuration, not data — it is immutable after
// construction.
package plan

import (
	"math"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

// ─── Tier Names ─────────────────────────────────────────────────────────────

const (
	TierFree         = "Free"
	TierIniciante    = "Artista Iniciante"
	TierProfissional = "Artista Profissional"
	TierEstudio      = "Estúdio"
)

// ─── Registry ───────────────────────────────────────────────────────────────

// Registry is the static plan-tier lookup table.
type Registry struct {
	tiers map[string]domain.PlanTier
}

// NewRegistry builds a registry from explicit tiers. Unknown names resolve
// to ErrUnknownPlan at lookup time — there is no silent fallback tier.
func NewRegistry(tiers []domain.PlanTier) *Registry {
	m := make(map[string]domain.PlanTier, len(tiers))
	for _, t := range tiers {
		m[t.Name] = t
	}
	return &Registry{tiers: m}
}

// DefaultRegistry returns the production tier table.
func DefaultRegistry() *Registry {
	limit := func(n int) *int { return &n }
	return NewRegistry([]domain.PlanTier{
		{Name: TierFree, Multiplier: 1.0, DailyMissionLimit: limit(1), DiscountRate: 0, HierarchyRank: 0},
		{Name: TierIniciante, Multiplier: 1.1, DailyMissionLimit: limit(3), DiscountRate: 0.05, HierarchyRank: 1},
		{Name: TierProfissional, Multiplier: 1.25, DailyMissionLimit: limit(10), DiscountRate: 0.10, HierarchyRank: 2},
		{Name: TierEstudio, Multiplier: 1.5, DailyMissionLimit: nil, DiscountRate: 0.15, HierarchyRank: 3},
	})
}

// Get returns the tier for a plan name.
func (r *Registry) Get(name string) (domain.PlanTier, error) {
	t, ok := r.tiers[name]
	if !ok {
		return domain.PlanTier{}, domain.ErrUnknownPlan
	}
	return t, nil
}

// DailyMissionLimit returns the tier's daily quota; nil means unlimited.
func (r *Registry) DailyMissionLimit(name string) (*int, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.DailyMissionLimit, nil
}

// Multiplier returns the tier's coin multiplier.
func (r *Registry) Multiplier(name string) (float64, error) {
	t, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return t.Multiplier, nil
}

// ApplyMultiplier scales a base coin amount by the tier multiplier,
// truncating toward zero: floor(base × multiplier). XP is never multiplied.
func (r *Registry) ApplyMultiplier(name string, baseCoins int64) (int64, error) {
	mult, err := r.Multiplier(name)
	if err != nil {
		return 0, err
	}
	return int64(math.Floor(float64(baseCoins) * mult)), nil
}

// DiscountedPrice applies the tier discount to a store price, rounding to
// the nearest whole coin.
func (r *Registry) DiscountedPrice(name string, price int64) (int64, error) {
	t, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(price) * (1 - t.DiscountRate))), nil
}

// ClassifyChange compares two plan names by hierarchy rank. Moving to the
// Free tier from any paid tier is a cancel, not a downgrade.
func (r *Registry) ClassifyChange(from, to string) (domain.PlanChange, error) {
	f, err := r.Get(from)
	if err != nil {
		return "", err
	}
	t, err := r.Get(to)
	if err != nil {
		return "", err
	}
	switch {
	case t.HierarchyRank == f.HierarchyRank:
		return domain.PlanUnchanged, nil
	case t.HierarchyRank > f.HierarchyRank:
		return domain.PlanUpgrade, nil
	case t.Name == TierFree:
		return domain.PlanCancel, nil
	default:
		return domain.PlanDowngrade, nil
	}
}

// Names returns all registered tier names (unordered).
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tiers))
	for n := range r.tiers {
		names = append(names, n)
	}
	return names
}
