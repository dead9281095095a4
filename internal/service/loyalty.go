package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/event-ticketing/internal/domain"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// LoyaltyStore is the storage contract of the tier upgrade.
type LoyaltyStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LoyaltyCandidates locks and returns customers with at least
	// minPurchases tickets whose tier is empty or one of belowTiers.
	LoyaltyCandidates(ctx context.Context, minPurchases int, belowTiers []string) ([]model.LoyaltyCandidate, error)
	// UpdateTier only touches customers whose tier is still empty or one
	// of fromTiers and reports how many rows it changed.
	UpdateTier(ctx context.Context, emails []string, tier string, fromTiers []string) (int64, error)
}

// TierChange describes one upgraded customer.
type TierChange struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	OldTier       string `json:"old_tier"`
	NewTier       string `json:"new_tier"`
	PurchaseCount int    `json:"purchase_count"`
}

// LoyaltyResult lists the customers whose tier changed.
type LoyaltyResult struct {
	Message string
	Updated []TierChange
}

type LoyaltyService struct {
	store LoyaltyStore
}

func NewLoyaltyService(store LoyaltyStore) *LoyaltyService {
	return &LoyaltyService{store: store}
}

// tiersBelow returns the known tiers ranked strictly below target.
func tiersBelow(target string) []string {
	r, _ := model.TierRank(target)
	var out []string
	for _, t := range []string{model.TierBronze, model.TierSilver, model.TierGold} {
		if tr, _ := model.TierRank(t); tr < r {
			out = append(out, t)
		}
	}
	return out
}

// Upgrade raises every customer with at least minPurchases tickets to
// targetTier.  Customers already at or above the target keep their tier.
func (s *LoyaltyService) Upgrade(ctx context.Context, minPurchases int, targetTier string) (LoyaltyResult, error) {
	if _, ok := model.TierRank(targetTier); !ok {
		return LoyaltyResult{}, domain.ErrInvalidTier
	}
	if minPurchases < 0 {
		return LoyaltyResult{}, domain.Invalid("min_purchases must not be negative")
	}

	res := LoyaltyResult{Updated: []TierChange{}}
	below := tiersBelow(targetTier)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		cands, err := s.store.LoyaltyCandidates(ctx, minPurchases, below)
		if err != nil {
			return storeErr("loyalty candidates", err)
		}
		if len(cands) == 0 {
			return nil
		}
		emails := make([]string, 0, len(cands))
		for _, c := range cands {
			emails = append(emails, c.Email)
			res.Updated = append(res.Updated, TierChange{
				Email:         c.Email,
				Name:          c.Name,
				OldTier:       c.CurrentTier,
				NewTier:       targetTier,
				PurchaseCount: c.PurchaseCount,
			})
		}
		n, err := s.store.UpdateTier(ctx, emails, targetTier, below)
		if err != nil {
			return storeErr("update tier", err)
		}
		// Candidates are locked; a short count means one moved after it
		// was read and the result would list it wrongly.
		if n != int64(len(emails)) {
			return domain.Storage("update tier", fmt.Errorf("changed %d of %d customers", n, len(emails)))
		}
		return nil
	})
	if err != nil {
		return LoyaltyResult{}, storeErr("loyalty update", err)
	}

	if len(res.Updated) == 0 {
		res.Message = "No customers qualify for upgrade"
	} else {
		res.Message = fmt.Sprintf("Updated %d customers to %s tier", len(res.Updated), targetTier)
	}
	return res, nil
}
