package plans

// Type classifies a license plan.
type Type string

const (
	TypeTrial        Type = "trial"
	TypeSubscription Type = "metered_subscription"
	TypeFixedTerm    Type = "fixed_term"
	TypePerpetual    Type = "perpetual"
)

// Valid reports whether t is a known plan type.
func (t Type) Valid() bool {
	switch t {
	case TypeTrial, TypeSubscription, TypeFixedTerm, TypePerpetual:
		return true
	}
	return false
}

// Unlimited is the site-limit sentinel for plans without a site ceiling
// (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Plan describes the license terms resolved from a provider catalog entry.
type Plan struct {
	PriceID   string `yaml:"price_id"`
	Type      Type   `yaml:"type"`
	KeyPrefix string `yaml:"key_prefix"`
	SiteLimit int64  `yaml:"site_limit"`
	// TermDays sets the license lifetime for fixed-term plans; zero for
	// subscription and perpetual plans, which carry no expiry at purchase.
	TermDays int `yaml:"term_days"`
}

// Fallback matches a product identifier by substring when no exact price
// match exists.
type Fallback struct {
	Match string `yaml:"match"`
	Plan  Plan   `yaml:"plan"`
}
