package plans

import (
	"errors"
	"fmt"
	"strings"
)

// Resolver maps provider identifiers to a plan.
type Resolver interface {
	// Resolve returns the plan for a price/product identifier pair.
	// Returns ErrPlanNotResolved when neither tier matches.
	Resolve(priceID, productName string) (Plan, error)
}

// Catalog is an immutable, validated set of plans with substring fallbacks.
// Safe for concurrent use.
type Catalog struct {
	byPrice   map[string]Plan
	fallbacks []Fallback
}

// NewCatalog builds a catalog from explicit plans and fallback rules.
func NewCatalog(list []Plan, fallbacks []Fallback) (*Catalog, error) {
	if len(list) == 0 && len(fallbacks) == 0 {
		return nil, errors.Join(ErrInvalidPlanCatalog, ErrEmptyCatalog)
	}

	byPrice := make(map[string]Plan, len(list))
	for _, p := range list {
		if err := validatePlan(p, true); err != nil {
			return nil, err
		}
		if _, exists := byPrice[p.PriceID]; exists {
			return nil, errors.Join(ErrInvalidPlanCatalog,
				fmt.Errorf("%w: %s", ErrDuplicatePriceID, p.PriceID))
		}
		byPrice[p.PriceID] = p
	}

	for _, f := range fallbacks {
		if f.Match == "" {
			return nil, errors.Join(ErrInvalidPlanCatalog,
				errors.New("fallback match string must not be empty"))
		}
		if err := validatePlan(f.Plan, false); err != nil {
			return nil, err
		}
	}

	return &Catalog{byPrice: byPrice, fallbacks: fallbacks}, nil
}

// Resolve implements Resolver. Exact price-ID matches win; the product-name
// substring tier runs only when no exact match exists.
func (c *Catalog) Resolve(priceID, productName string) (Plan, error) {
	if p, ok := c.byPrice[priceID]; ok {
		return p, nil
	}

	product := strings.ToLower(productName)
	if product != "" {
		for _, f := range c.fallbacks {
			if strings.Contains(product, strings.ToLower(f.Match)) {
				return f.Plan, nil
			}
		}
	}

	return Plan{}, fmt.Errorf("%w: price=%q product=%q", ErrPlanNotResolved, priceID, productName)
}

// Plans returns all explicitly configured plans, keyed by price ID.
func (c *Catalog) Plans() map[string]Plan {
	out := make(map[string]Plan, len(c.byPrice))
	for k, v := range c.byPrice {
		out[k] = v
	}
	return out
}

func validatePlan(p Plan, requirePrice bool) error {
	if requirePrice && p.PriceID == "" {
		return errors.Join(ErrInvalidPlanCatalog, errors.New("plan price_id must not be empty"))
	}
	if !p.Type.Valid() {
		return errors.Join(ErrInvalidPlanCatalog, fmt.Errorf("unknown plan type %q", p.Type))
	}
	if p.KeyPrefix == "" {
		return errors.Join(ErrInvalidPlanCatalog, fmt.Errorf("plan %s has no key prefix", p.PriceID))
	}
	if p.SiteLimit == 0 || p.SiteLimit < Unlimited {
		return errors.Join(ErrInvalidPlanCatalog,
			fmt.Errorf("plan %s has invalid site limit %d", p.PriceID, p.SiteLimit))
	}
	if p.Type == TypeFixedTerm && p.TermDays <= 0 {
		return errors.Join(ErrInvalidPlanCatalog,
			fmt.Errorf("fixed-term plan %s must set term_days", p.PriceID))
	}
	return nil
}
