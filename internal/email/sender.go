// Package email sends transactional mail over SMTP. Templates are compiled
// in so the binary has no runtime asset dependencies.
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

var confirmTmpl = template.Must(template.New("confirm").Parse(`<html>
<body>
  <p>Hello {{.Username}},</p>
  <p>Thank you for registering. Please confirm your email address by following the link below:</p>
  <p><a href="{{.Link}}">Confirm email</a></p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html>
<body>
  <p>Hello {{.Username}},</p>
  <p>A password reset was requested for your account. Follow the link below to choose a new password:</p>
  <p><a href="{{.Link}}">Reset password</a></p>
  <p>If you did not request this, you can ignore this message and your password will stay unchanged.</p>
</body>
</html>`))

// Sender delivers mail through an SMTP relay.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *Sender) send(to, subject string, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", buf.String())
	return s.dialer.DialAndSend(m)
}

// SendConfirmationMail sends the signup confirmation link.
func (s *Sender) SendConfirmationMail(to, username, link string) error {
	return s.send(to, "Confirm your email address", confirmTmpl, map[string]string{
		"Username": username,
		"Link":     link,
	})
}

// SendPasswordResetMail sends the password reset link.
func (s *Sender) SendPasswordResetMail(to, username, link string) error {
	return s.send(to, "Password reset request", resetTmpl, map[string]string{
		"Username": username,
		"Link":     link,
	})
}
