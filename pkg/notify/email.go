package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dmitrymomot/licensekit/pkg/email"
)

// EmailForwarder delivers the issued key to the customer by email. This is
// the out-of-band disclosure channel: HTTP responses never carry the key.
type EmailForwarder struct {
	sender email.EmailSender
}

// NewEmailForwarder wraps an email sender as an issuance channel.
func NewEmailForwarder(sender email.EmailSender) *EmailForwarder {
	return &EmailForwarder{sender: sender}
}

func (f *EmailForwarder) ForwardIssuance(ctx context.Context, iss Issuance) error {
	return f.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   iss.CustomerEmail,
		Subject:  "Your license key",
		BodyHTML: issuanceBody(iss),
		Tag:      "license-issued",
	})
}

func issuanceBody(iss Issuance) string {
	var b strings.Builder
	name := iss.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(name))
	fmt.Fprintf(&b, "<p>Your license key is:</p><p><code>%s</code></p>", html.EscapeString(iss.LicenseKey))
	if iss.ExpiresAt != nil {
		fmt.Fprintf(&b, "<p>The license is valid until %s.</p>", iss.ExpiresAt.UTC().Format(time.DateOnly))
	}
	b.WriteString("<p>Keep this email: the key is not shown anywhere else.</p>")
	return b.String()
}
