package licensing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/licensekit/pkg/licensing"
	"github.com/dmitrymomot/licensekit/pkg/plans"
)

func TestStartTrial_IssuesTrialLicense(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(start)
	forwarder := &capturingForwarder{}
	svc := newTestService(t, licensing.NewMemoryStore(),
		licensing.WithClock(clock.Now),
		licensing.WithNotifier(forwarder))

	result, err := svc.StartTrial(context.Background(), "trial@example.com", "Trial User")
	require.NoError(t, err)
	assert.Equal(t, plans.TypeTrial, result.PlanType)
	assert.Equal(t, start.AddDate(0, 0, 14), result.ExpiresAt)

	require.Len(t, forwarder.issuances, 1)
	assert.NotEmpty(t, forwarder.issuances[0].LicenseKey,
		"the key must go out through the notification channel")
}

func TestStartTrial_LiveTrialBlocksRepeat(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	clock := newTestClock(start)
	svc := newTestService(t, licensing.NewMemoryStore(), licensing.WithClock(clock.Now))
	ctx := context.Background()

	_, err := svc.StartTrial(ctx, "once@example.com", "")
	require.NoError(t, err)

	_, err = svc.StartTrial(ctx, "once@example.com", "")
	require.ErrorIs(t, err, licensing.ErrTrialExists)

	var exists *licensing.TrialExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, start, exists.IssuedAt)
	assert.Contains(t, err.Error(), "2026-02-01", "the refusal names the issuance date")
}

func TestStartTrial_LapsedTrialAllowsNewOne(t *testing.T) {
	t.Parallel()

	clock := newTestClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	store := licensing.NewMemoryStore()
	svc := newTestService(t, store, licensing.WithClock(clock.Now))
	ctx := context.Background()

	_, err := svc.StartTrial(ctx, "repeat@example.com", "")
	require.NoError(t, err)

	// The earlier trial lapses without ever being validated; the repeat
	// request itself triggers the expiry transition and then succeeds.
	clock.Advance(30 * 24 * time.Hour)
	_, err = svc.StartTrial(ctx, "repeat@example.com", "")
	require.NoError(t, err)

	licenses, err := svc.ListLicenses(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, licenses, 2)
}

func TestStartTrial_CustomPolicy(t *testing.T) {
	t.Parallel()

	clock := newTestClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	store := licensing.NewMemoryStore()
	svc := newTestService(t, store,
		licensing.WithClock(clock.Now),
		licensing.WithTrialPolicy(7, 2, "DEMO"))

	result, err := svc.StartTrial(context.Background(), "demo@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().AddDate(0, 0, 7), result.ExpiresAt)

	licenses, err := svc.ListLicenses(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.EqualValues(t, 2, licenses[0].SiteLimit)
	assert.Contains(t, licenses[0].Key, "DEMO-")
}

func TestStartTrial_MissingEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, licensing.NewMemoryStore())

	_, err := svc.StartTrial(context.Background(), "", "")
	assert.Error(t, err)
}
