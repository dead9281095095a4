package model

// Loyalty tiers, lowest first.
const (
    TierBronze = "Bronze"
    TierSilver = "Silver"
    TierGold   = "Gold"
)

// TierRank orders loyalty tiers.  Unknown or empty tiers rank 0, below
// Bronze, and ok is false.
func TierRank(tier string) (rank int, ok bool) {
    switch tier {
    case TierBronze:
        return 1, true
    case TierSilver:
        return 2, true
    case TierGold:
        return 3, true
    }
    return 0, false
}

// Customer is a Person that can buy tickets.  Customers are keyed by
// email and must exist before a purchase.
//
// Fields:
//  Email       – Customer.email
//  FirstName   – Person.first_name
//  LastName    – Person.last_name
//  LoyaltyTier – Customer.loyalty_tier (Bronze, Silver, Gold)
type Customer struct {
    Email       string `json:"email"`
    FirstName   string `json:"first_name"`
    LastName    string `json:"last_name"`
    LoyaltyTier string `json:"loyalty_tier"`
}

// LoyaltyCandidate is a customer whose ticket count qualifies for a tier
// change.
type LoyaltyCandidate struct {
    Email         string `json:"email"`
    Name          string `json:"name"`
    CurrentTier   string `json:"current_tier"`
    PurchaseCount int    `json:"purchase_count"`
    TotalSpent    Money  `json:"total_spent"`
}
