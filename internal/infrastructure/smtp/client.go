package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"streak-service/internal/config"
	"streak-service/internal/domain/entity"
)

// Client delivers notifications by email
type Client struct {
	cfg      *config.SMTPConfig
	template *template.Template
	send     func(m *gomail.Message) error
}

// NewClient creates a new SMTP client
func NewClient(cfg *config.SMTPConfig) (*Client, error) {
	tmpl, err := template.New("notification").Parse(defaultNotificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template: %w", err)
	}

	c := &Client{
		cfg:      cfg,
		template: tmpl,
	}
	c.send = c.dialAndSend
	return c, nil
}

func (c *Client) Name() string { return "email" }

// Deliver emails the notification to the configured recipient
func (c *Client) Deliver(ctx context.Context, n *entity.Notification) error {
	if c.cfg.To == "" {
		return fmt.Errorf("no recipient configured")
	}

	body, err := c.render(n)
	if err != nil {
		return fmt.Errorf("failed to render notification email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", c.cfg.FromName, c.cfg.FromEmail))
	m.SetHeader("To", c.cfg.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Text)
	m.AddAlternative("text/html", body)

	return c.send(m)
}

func (c *Client) render(n *entity.Notification) (string, error) {
	var buf bytes.Buffer
	if err := c.template.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// dialAndSend sends an email using gomail
func (c *Client) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.Username, c.cfg.Password)

	// UseTLS selects STARTTLS (587), otherwise implicit SSL (465)
	d.SSL = !c.cfg.UseTLS
	d.TLSConfig = &tls.Config{
		ServerName: c.cfg.Host,
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const defaultNotificationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4CAF50;">{{.Subject}}</h2>
        <p style="font-size: 18px;">
            {{.Text}}
        </p>
        {{if gt .Streak 0}}<p>Current streak: <strong>{{.Streak}}</strong> days</p>{{end}}
        <hr style="border: none; border-top: 1px solid #eee;">
        <p style="font-size: 12px; color: #999;">Habit Tracker</p>
    </div>
</body>
</html>
`
