package plans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/licensekit/pkg/plans"
)

func testCatalog(t *testing.T) *plans.Catalog {
	t.Helper()

	catalog, err := plans.NewCatalog(
		[]plans.Plan{
			{PriceID: "pri_sub_monthly", Type: plans.TypeSubscription, KeyPrefix: "SUB", SiteLimit: 5},
			{PriceID: "pri_annual", Type: plans.TypeFixedTerm, KeyPrefix: "ANN", SiteLimit: 5, TermDays: 365},
			{PriceID: "pri_lifetime", Type: plans.TypePerpetual, KeyPrefix: "LTD", SiteLimit: plans.Unlimited},
		},
		[]plans.Fallback{
			{Match: "lifetime", Plan: plans.Plan{Type: plans.TypePerpetual, KeyPrefix: "LTD", SiteLimit: plans.Unlimited}},
			{Match: "annual", Plan: plans.Plan{Type: plans.TypeFixedTerm, KeyPrefix: "ANN", SiteLimit: 5, TermDays: 365}},
		},
	)
	require.NoError(t, err)
	return catalog
}

func TestCatalogResolve(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)

	t.Run("exact price match wins", func(t *testing.T) {
		t.Parallel()

		plan, err := catalog.Resolve("pri_sub_monthly", "")
		require.NoError(t, err)
		assert.Equal(t, plans.TypeSubscription, plan.Type)
		assert.Equal(t, int64(5), plan.SiteLimit)
	})

	t.Run("exact match beats fallback", func(t *testing.T) {
		t.Parallel()

		// Product name would match the "lifetime" fallback, but the price
		// ID resolves first.
		plan, err := catalog.Resolve("pri_annual", "Acme Pro Lifetime")
		require.NoError(t, err)
		assert.Equal(t, plans.TypeFixedTerm, plan.Type)
	})

	t.Run("substring fallback on product name", func(t *testing.T) {
		t.Parallel()

		plan, err := catalog.Resolve("pri_unknown", "Acme Pro LIFETIME Deal")
		require.NoError(t, err)
		assert.Equal(t, plans.TypePerpetual, plan.Type)
		assert.Equal(t, plans.Unlimited, plan.SiteLimit)
	})

	t.Run("fallback order is first match", func(t *testing.T) {
		t.Parallel()

		plan, err := catalog.Resolve("", "lifetime annual bundle")
		require.NoError(t, err)
		assert.Equal(t, plans.TypePerpetual, plan.Type)
	})

	t.Run("unresolved", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Resolve("pri_unknown", "Something Else")
		assert.ErrorIs(t, err, plans.ErrPlanNotResolved)

		_, err = catalog.Resolve("", "")
		assert.ErrorIs(t, err, plans.ErrPlanNotResolved)
	})
}

func TestNewCatalogValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		plans     []plans.Plan
		fallbacks []plans.Fallback
	}{
		{name: "empty catalog"},
		{
			name:  "missing price id",
			plans: []plans.Plan{{Type: plans.TypeTrial, KeyPrefix: "TRIAL", SiteLimit: 1}},
		},
		{
			name:  "unknown type",
			plans: []plans.Plan{{PriceID: "p", Type: "weird", KeyPrefix: "X", SiteLimit: 1}},
		},
		{
			name:  "zero site limit",
			plans: []plans.Plan{{PriceID: "p", Type: plans.TypeTrial, KeyPrefix: "X", SiteLimit: 0}},
		},
		{
			name:  "fixed term without term days",
			plans: []plans.Plan{{PriceID: "p", Type: plans.TypeFixedTerm, KeyPrefix: "X", SiteLimit: 1}},
		},
		{
			name: "duplicate price id",
			plans: []plans.Plan{
				{PriceID: "p", Type: plans.TypeTrial, KeyPrefix: "X", SiteLimit: 1},
				{PriceID: "p", Type: plans.TypeTrial, KeyPrefix: "Y", SiteLimit: 1},
			},
		},
		{
			name:      "fallback without match",
			fallbacks: []plans.Fallback{{Plan: plans.Plan{Type: plans.TypeTrial, KeyPrefix: "X", SiteLimit: 1}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := plans.NewCatalog(tc.plans, tc.fallbacks)
			assert.ErrorIs(t, err, plans.ErrInvalidPlanCatalog)
		})
	}
}
