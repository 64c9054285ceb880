package mail

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"valuation-service/internal/domain"
	"valuation-service/internal/s2d"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	continuationTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/continuation.html"))
	reportTmpl       = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/report.html"))
)

// Mailer renders respondent emails and hands them to a Sender. It implements app.Mailer.
type Mailer struct {
	sender Sender
	from   string
	md     goldmark.Markdown
}

func NewMailer(sender Sender, from string) *Mailer {
	return &Mailer{
		sender: sender,
		from:   from,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (m *Mailer) SendContinuation(ctx context.Context, to, company, link string, expiresAt time.Time) error {
	const subject = "Continue your business valuation"
	html, err := render(continuationTmpl, map[string]any{
		"Subject": subject,
		"Company": company,
		"Link":    link,
		"Expires": expiresAt.UTC().Format("2 January 2006 at 15:04 MST"),
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{From: m.from, To: to, Subject: subject, HTML: html})
}

func (m *Mailer) SendS2DReport(ctx context.Context, to, company string, result domain.S2DResult) error {
	subject := "Your sale-to-delivery assessment"
	if company != "" {
		subject += ": " + company
	}
	body, err := m.RenderReport(result)
	if err != nil {
		return err
	}
	html, err := render(reportTmpl, map[string]any{
		"Subject": subject,
		"Body":    body,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{From: m.from, To: to, Subject: subject, HTML: html})
}

// RenderReport converts the markdown sub-assessment report to HTML.
func (m *Mailer) RenderReport(result domain.S2DResult) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(s2d.Report(result)), &buf); err != nil {
		return "", eris.Wrap(err, "mail: render report markdown")
	}
	// goldmark drops raw HTML unless html.WithUnsafe is set, so the output is trusted.
	return template.HTML(buf.String()), nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", eris.Wrap(err, "mail: render template")
	}
	return buf.String(), nil
}
