// Package notify sends post-signup welcome email and publishes domain
// events. Both paths are fire-and-forget: failures are logged, never
// surfaced to the request that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendBaseURL = "https://api.resend.com"

// Mailer calls the Resend email API over HTTP.
type Mailer struct {
	baseURL    string
	apiKey     string
	from       string
	senderName string
	clientURL  string
	httpClient *http.Client
}

// NewMailer builds a Resend-backed mailer. baseURL is overridable for tests;
// pass "" for the production API.
func NewMailer(baseURL, apiKey, from, senderName, clientURL string) *Mailer {
	if baseURL == "" {
		baseURL = resendBaseURL
	}
	return &Mailer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		from:       from,
		senderName: senderName,
		clientURL:  clientURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendWelcome emails the templated welcome message to a new user.
func (m *Mailer) SendWelcome(ctx context.Context, to, fullName string) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"from":    fmt.Sprintf("%s <%s>", m.senderName, m.from),
		"to":      []string{to},
		"subject": fmt.Sprintf("Welcome to %s!", m.senderName),
		"html":    welcomeHTML(m.senderName, fullName, m.clientURL),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send welcome: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify: resend returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func welcomeHTML(senderName, fullName, clientURL string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Welcome to %s, %s!</h1>
  <p>Your account is ready. Browse listings, save favorites, and reach out to agents directly.</p>
  <p><a href="%s" style="display: inline-block; padding: 12px 24px; background: #0f766e; color: #fff; text-decoration: none; border-radius: 6px;">Start exploring</a></p>
  <p style="color: #6b7280; font-size: 12px;">If you did not create this account, you can safely ignore this email.</p>
</div>`, senderName, fullName, clientURL)
}
