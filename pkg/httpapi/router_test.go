package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/licensekit/pkg/httpapi"
	"github.com/dmitrymomot/licensekit/pkg/licensing"
	"github.com/dmitrymomot/licensekit/pkg/plans"
)

const testAdminSecret = "test-admin-secret"

// stubProvider returns a canned event or error instead of verifying real
// provider signatures.
type stubProvider struct {
	event *licensing.Event
	err   error
}

func (p *stubProvider) ParseWebhook(*http.Request, []byte) (*licensing.Event, error) {
	return p.event, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T, provider licensing.PaymentProvider) (http.Handler, *licensing.Service) {
	t.Helper()

	catalog, err := plans.NewCatalog([]plans.Plan{
		{PriceID: "pri_basic", Type: plans.TypeSubscription, KeyPrefix: "BASIC", SiteLimit: 2},
	}, nil)
	require.NoError(t, err)

	svc, err := licensing.NewService(licensing.NewMemoryStore(), catalog,
		licensing.WithLogger(discardLogger()))
	require.NoError(t, err)

	if provider == nil {
		provider = &stubProvider{event: &licensing.Event{Type: licensing.EventIgnored}}
	}
	router := httpapi.NewRouter(svc, provider, httpapi.Config{AdminSecret: testAdminSecret}, discardLogger())
	return router, svc
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func issueViaWebhook(t *testing.T, svc *licensing.Service, email string) string {
	t.Helper()

	outcome, err := svc.HandleWebhook(context.Background(), &licensing.Event{
		Type:          licensing.EventPurchaseCompleted,
		EventID:       "evt_" + email,
		CustomerEmail: email,
		PriceID:       "pri_basic",
	})
	require.NoError(t, err)
	require.Equal(t, licensing.OutcomeIssued, outcome)

	licenses, err := svc.ListLicenses(context.Background(), 10, 0)
	require.NoError(t, err)
	for _, lic := range licenses {
		if lic.CustomerEmail == email {
			return lic.Key
		}
	}
	t.Fatal("license not found")
	return ""
}

func TestValidateEndpoint_AlwaysHTTP200(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "valid@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"license_key": key,
		"site_url":    "https://blog.example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "valid", body["code"])
	assert.NotContains(t, body, "error")

	rec, body = doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"license_key": "BASIC-ZZZZ-ZZZZ-ZZZZ-ZZZZ",
		"site_url":    "https://blog.example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "invalid key still answers 200")
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid", body["code"])
}

func TestValidateEndpoint_QuotaExceeded(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "quota@example.com")

	for _, site := range []string{"https://a.example.com", "https://b.example.com"} {
		rec, body := doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
			"license_key": key, "site_url": site,
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, body["success"])
	}

	rec, body := doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"license_key": key, "site_url": "https://c.example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quota_exceeded", body["code"])
}

func TestValidateEndpoint_MissingFields(t *testing.T) {
	t.Parallel()

	router, _ := newTestAPI(t, nil)

	rec, body := doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"site_url": "https://a.example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestTrialEndpoint_KeyNeverInResponse(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)

	rec, body := doJSON(t, router, http.MethodPost, "/v1/trial", map[string]string{
		"email": "trial@example.com",
		"name":  "Trial User",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "license_key")

	licenses, err := svc.ListLicenses(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.NotContains(t, rec.Body.String(), licenses[0].Key,
		"the raw response must not leak the issued key")

	// Second signup for the same email is rejected.
	rec, body = doJSON(t, router, http.MethodPost, "/v1/trial", map[string]string{
		"email": "trial@example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestTrialEndpoint_InvalidEmail(t *testing.T) {
	t.Parallel()

	router, _ := newTestAPI(t, nil)

	rec, body := doJSON(t, router, http.MethodPost, "/v1/trial", map[string]string{
		"email": "not-an-email",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSiteEndpoints_RegisterAndRelease(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "sites@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/v1/license/sites", map[string]string{
		"license_key": key, "site_url": "https://shop.example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = doJSON(t, router, http.MethodDelete, "/v1/license/sites", map[string]string{
		"license_key": key, "site_url": "https://shop.example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	// Releasing again reports the site as unregistered.
	rec, body = doJSON(t, router, http.MethodDelete, "/v1/license/sites", map[string]string{
		"license_key": key, "site_url": "https://shop.example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestUsageEndpoint(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "usage@example.com")

	_, _ = doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"license_key": key, "site_url": "https://a.example.com",
	}, nil)

	rec, body := doJSON(t, router, http.MethodGet, "/v1/license/"+key+"/usage", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["sites_active"])
	assert.Len(t, body["sites"], 1)
}

func TestWebhookEndpoint_StatusCodes(t *testing.T) {
	t.Parallel()

	t.Run("rejected signature answers 400", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestAPI(t, &stubProvider{err: licensing.ErrWebhookRejected})
		rec, _ := doJSON(t, router, http.MethodPost, "/webhooks/paddle", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed payload answers 400", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestAPI(t, &stubProvider{err: licensing.ErrMalformedEvent})
		rec, _ := doJSON(t, router, http.MethodPost, "/webhooks/paddle", map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("processed purchase answers 200", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestAPI(t, &stubProvider{event: &licensing.Event{
			Type:          licensing.EventPurchaseCompleted,
			EventID:       "evt_http",
			CustomerEmail: "webhook@example.com",
			PriceID:       "pri_basic",
		}})
		rec, body := doJSON(t, router, http.MethodPost, "/webhooks/paddle", map[string]string{}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "issued", body["outcome"])

		licenses, err := svc.ListLicenses(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Len(t, licenses, 1)
	})

	t.Run("ignored event answers 200", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestAPI(t, &stubProvider{event: &licensing.Event{Type: licensing.EventIgnored}})
		rec, body := doJSON(t, router, http.MethodPost, "/webhooks/paddle", map[string]string{}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ignored", body["outcome"])
	})
}

func TestAdminEndpoints_RequireSecret(t *testing.T) {
	t.Parallel()

	router, _ := newTestAPI(t, nil)

	rec, _ := doJSON(t, router, http.MethodGet, "/admin/licenses", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/admin/licenses", nil, map[string]string{
		"X-Admin-Secret": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := doJSON(t, router, http.MethodGet, "/admin/licenses", nil, map[string]string{
		"X-Admin-Secret": testAdminSecret,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestAdminEndpoints_ResetUsage(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "reset@example.com")
	admin := map[string]string{"X-Admin-Secret": testAdminSecret}

	for _, site := range []string{"https://a.example.com", "https://b.example.com"} {
		_, _ = doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
			"license_key": key, "site_url": site,
		}, nil)
	}

	rec, _ := doJSON(t, router, http.MethodPost, "/admin/licenses/"+key+"/reset-usage", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	// Quota is free again after the reset.
	rec, body := doJSON(t, router, http.MethodPost, "/v1/license/validate", map[string]string{
		"license_key": key, "site_url": "https://c.example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, _ = doJSON(t, router, http.MethodPost, "/admin/licenses/UNKNOWN-KEY/reset-usage", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpoints_StatusOverride(t *testing.T) {
	t.Parallel()

	router, svc := newTestAPI(t, nil)
	key := issueViaWebhook(t, svc, "override@example.com")
	admin := map[string]string{"X-Admin-Secret": testAdminSecret}

	rec, body := doJSON(t, router, http.MethodPost, "/admin/licenses/"+key+"/status",
		map[string]string{"status": "cancelled"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	verdict, err := svc.Validate(context.Background(), licensing.ValidateRequest{
		LicenseKey: key, SiteURL: "https://a.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, licensing.VerdictInactive, verdict.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/admin/licenses/"+key+"/status",
		map[string]string{"status": "nonsense"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
