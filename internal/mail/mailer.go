// Package mail sends transactional email. Delivery failures are logged by
// callers and never fail the triggering request.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Mailer is the outbound email contract consumed by the handlers. Send
// reports success as a bool so callers can log without branching on error
// taxonomy.
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) bool
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer delivers mail over authenticated SMTP. When no credentials are
// configured it logs the message instead of sending, which keeps local
// development working without a mail account.
type SMTPMailer struct {
	Cfg SMTPConfig
	Log *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{Cfg: cfg, Log: log}
}

func (m *SMTPMailer) Send(to, subject, htmlBody, textBody string) bool {
	if m.Cfg.User == "" || m.Cfg.Password == "" {
		m.Log.Info("email delivery skipped (no SMTP credentials)",
			zap.String("to", to), zap.String("subject", subject))
		return true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.Cfg.FromName, m.Cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if htmlBody != "" {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(htmlBody)
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(textBody)
	}

	addr := fmt.Sprintf("%s:%d", m.Cfg.Host, m.Cfg.Port)
	auth := smtp.PlainAuth("", m.Cfg.User, m.Cfg.Password, m.Cfg.Host)
	if err := smtp.SendMail(addr, auth, m.Cfg.FromEmail, []string{to}, []byte(b.String())); err != nil {
		m.Log.Warn("email delivery failed", zap.String("to", to), zap.Error(err))
		return false
	}
	return true
}

// SendPasswordReset emails the reset link. The token is valid for one hour.
func SendPasswordReset(m Mailer, to, resetURL, token string) bool {
	link := fmt.Sprintf("%s?token=%s", resetURL, token)
	html := fmt.Sprintf(`<html><body>
<h2>Réinitialisation de votre mot de passe</h2>
<p>Vous avez demandé à réinitialiser votre mot de passe.</p>
<p>Cliquez sur le lien suivant : <a href="%s">%s</a></p>
<p>Ce lien est valide pendant 1 heure.</p>
<p>Si vous n'avez pas demandé cette réinitialisation, ignorez cet email.</p>
</body></html>`, link, link)
	text := fmt.Sprintf("Réinitialisation de votre mot de passe\n\nLien : %s\n\nCe lien est valide pendant 1 heure.\n", link)
	return m.Send(to, "Réinitialisation de votre mot de passe - ImpactTracker", html, text)
}

// SendWelcome emails a newly created account.
func SendWelcome(m Mailer, to, name string) bool {
	html := fmt.Sprintf(`<html><body>
<h2>Bienvenue %s !</h2>
<p>Votre compte ImpactTracker a été créé avec succès.</p>
</body></html>`, name)
	return m.Send(to, "Bienvenue sur ImpactTracker", html, "")
}
