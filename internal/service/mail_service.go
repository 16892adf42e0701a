package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	config "github.com/maheshrc27/crosspost-api/configs"
)

const (
	TemplateVerification = "verification"
	TemplateForgotPass   = "forgotPass"
	TemplateTokenExpiry  = "tokenExpiry"
)

// Mail is a templated message. It is also the payload of the mail queue task.
type Mail struct {
	To       []string          `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

type MailService interface {
	Send(ctx context.Context, mail *Mail) error
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "verification"}}<p>Hi {{.name}},</p>
<p>Thanks for signing up to {{.app}}. Your verification code is:</p>
<h2>{{.code}}</h2>
<p>Enter it on the verification page to activate your account.</p>{{end}}
{{define "forgotPass"}}<p>Hi {{.name}},</p>
<p>We received a request to reset your {{.app}} password. Your reset code is:</p>
<h2>{{.code}}</h2>
<p>If you did not ask for this you can ignore this email.</p>{{end}}
{{define "tokenExpiry"}}<p>Hi {{.name}},</p>
<p>The Facebook access token saved in {{.app}} expires on {{.expiry_date}}.</p>
<p>Save a fresh token to keep publishing to your page.</p>{{end}}
`))

// RenderMail executes the named template with the mail data.
func RenderMail(mail *Mail) (string, error) {
	if mailTemplates.Lookup(mail.Template) == nil {
		return "", fmt.Errorf("unknown mail template %q", mail.Template)
	}
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, mail.Template, mail.Data); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

type smtpMailService struct {
	cfg config.Email
}

func NewSMTPMailService(cfg config.Email) MailService {
	return &smtpMailService{cfg: cfg}
}

func (s *smtpMailService) Send(ctx context.Context, mail *Mail) error {
	if s.cfg.Host == "" {
		return errors.New("mail server is not configured")
	}
	if len(mail.To) == 0 {
		return errors.New("mail has no recipients")
	}

	body, err := RenderMail(mail)
	if err != nil {
		return err
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(mail.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mail.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, mail.To, strings.NewReader(msg.String())); err != nil {
		slog.Error("failed to send mail", "template", mail.Template, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}

	slog.Info("mail sent", "template", mail.Template, "to", mail.To)
	return nil
}
