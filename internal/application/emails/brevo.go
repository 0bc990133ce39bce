package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inmuebles-backend/internal/domain"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// BrevoClient sends the office notifications via Brevo (Sendinblue). Env:
// BREVO_API_KEY, MAIL_FROM, LEADS_NOTIFY_EMAIL. Missing key or recipient = no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	NotifyTo string
	SiteURL  string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@isahouse.co"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

// send sends one email via Brevo API.
func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string, replyTo *BrevoReplyTo) error {
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: brandName},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     replyTo,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// NotifyNewLead tells the office a lead arrived. Replies go to the lead when
// they left an email.
func (c *BrevoClient) NotifyNewLead(ctx context.Context, lead domain.Lead) error {
	if c.APIKey == "" || c.NotifyTo == "" {
		return nil
	}
	var replyTo *BrevoReplyTo
	if lead.Email != "" {
		replyTo = &BrevoReplyTo{Email: lead.Email, Name: lead.Name}
	}
	subject := "Nuevo lead: " + lead.Name
	if lead.PropertyCode != "" {
		subject += " (" + lead.PropertyCode + ")"
	}
	return c.send(ctx, c.NotifyTo, subject, EmailLayout(newLeadContent(lead, c.SiteURL)), replyTo)
}

func newLeadContent(lead domain.Lead, siteURL string) string {
	property := "Formulario de contacto general"
	if lead.PropertySlug != "" {
		property = fmt.Sprintf(`<a href="%s/propiedades/%s">%s</a>`,
			EscapeHTML(siteURL), EscapeHTML(lead.PropertySlug), EscapeHTML(lead.PropertyCode))
	}
	email := "—"
	if lead.Email != "" {
		email = EscapeHTML(lead.Email)
	}
	return fmt.Sprintf(`
    <h1>Nuevo lead recibido</h1>
    <p><strong>Nombre:</strong> %s<br>
    <strong>Teléfono:</strong> %s<br>
    <strong>Email:</strong> %s<br>
    <strong>Propiedad:</strong> %s<br>
    <strong>Origen:</strong> %s</p>
    <h2>Mensaje</h2>
    <p>%s</p>
    <p>Gestiona este lead desde el panel de administración.</p>
`, EscapeHTML(lead.Name), EscapeHTML(lead.Phone), email, property, EscapeHTML(string(lead.Origin)), EscapeHTML(lead.Message))
}
