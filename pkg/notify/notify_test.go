package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/licensekit/pkg/email"
	"github.com/dmitrymomot/licensekit/pkg/notify"
)

type recordingForwarder struct {
	calls int
	err   error
}

func (r *recordingForwarder) ForwardIssuance(context.Context, notify.Issuance) error {
	r.calls++
	return r.err
}

func TestMultiForwardsToAllChannels(t *testing.T) {
	t.Parallel()

	failing := &recordingForwarder{err: errors.New("smtp down")}
	healthy := &recordingForwarder{}

	m := notify.NewMulti(
		[]notify.Forwarder{failing, healthy},
		notify.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		notify.WithTimeout(time.Second),
	)

	err := m.ForwardIssuance(context.Background(), notify.Issuance{
		LicenseKey:    "SUB-AAAA-BBBB-CCCC-DDDD",
		CustomerEmail: "customer@example.com",
	})

	// Best-effort contract: never an error, every channel attempted.
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
}

func TestWebhookForwarder(t *testing.T) {
	t.Parallel()

	t.Run("posts issuance JSON", func(t *testing.T) {
		t.Parallel()

		var got notify.Issuance
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		f, err := notify.NewWebhookForwarder(notify.WebhookConfig{EndpointURL: srv.URL})
		require.NoError(t, err)

		err = f.ForwardIssuance(context.Background(), notify.Issuance{
			LicenseKey:    "LTD-AAAA-BBBB-CCCC-DDDD",
			PlanType:      "perpetual",
			CustomerEmail: "customer@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "LTD-AAAA-BBBB-CCCC-DDDD", got.LicenseKey)
		assert.Equal(t, "perpetual", got.PlanType)
	})

	t.Run("non-2xx is a failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		f, err := notify.NewWebhookForwarder(notify.WebhookConfig{EndpointURL: srv.URL})
		require.NoError(t, err)

		err = f.ForwardIssuance(context.Background(), notify.Issuance{LicenseKey: "X"})
		assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := notify.NewWebhookForwarder(notify.WebhookConfig{})
		assert.ErrorIs(t, err, notify.ErrMissingEndpoint)
	})
}

func TestEmailForwarderCarriesKey(t *testing.T) {
	t.Parallel()

	sender := &capturingSender{}
	f := notify.NewEmailForwarder(sender)

	expires := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	err := f.ForwardIssuance(context.Background(), notify.Issuance{
		LicenseKey:    "TRIAL-AAAA-BBBB-CCCC-DDDD",
		CustomerEmail: "customer@example.com",
		CustomerName:  "Pat",
		ExpiresAt:     &expires,
	})
	require.NoError(t, err)

	assert.Equal(t, "customer@example.com", sender.params.SendTo)
	assert.Contains(t, sender.params.BodyHTML, "TRIAL-AAAA-BBBB-CCCC-DDDD")
	assert.Contains(t, sender.params.BodyHTML, "2026-09-12")
}

type capturingSender struct {
	params email.SendEmailParams
}

func (s *capturingSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	s.params = params
	return nil
}
