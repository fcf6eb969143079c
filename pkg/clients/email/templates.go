package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<h1>Welcome to PorcPro, {{.Name}}!</h1>
<p>Your farm is ready. Start by registering your animals, then record health cases, gestations and feedings as they happen.</p>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<p>Hello {{.Name}},</p>
<p>Someone asked to reset your PorcPro password. Follow <a href="{{.Link}}">this link</a> to choose a new one.</p>
<p>If it was not you, ignore this email.</p>`))

	digestTmpl = template.Must(template.New("digest").Parse(`<h2>{{.Farm}}: {{len .Lines}} alerts today</h2>
<ul>{{range .Lines}}<li><strong>[{{.Priority}}]</strong> {{.Title}}{{if .Detail}} - {{.Detail}}{{end}}</li>{{end}}</ul>`))

	reportTmpl = template.Must(template.New("report").Parse(`<pre style="font-family:monospace">{{.}}</pre>`))
)

// AlertLine is one entry of an alert digest.
type AlertLine struct {
	Priority string
	Title    string
	Detail   string
}

// Mailer renders the application templates and sends them.
type Mailer struct {
	sender Sender
}

// NewMailer wraps a sender.
func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

// SendWelcome greets a new user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) (string, error) {
	html, err := render(welcomeTmpl, map[string]string{"Name": name})
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: "Welcome to PorcPro",
		HTML:    html,
		Text:    fmt.Sprintf("Welcome to PorcPro, %s! Your farm is ready.", name),
		Tags:    map[string]string{"category": "welcome"},
	})
}

// SendPasswordReset sends the reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) (string, error) {
	html, err := render(resetTmpl, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: "Reset your PorcPro password",
		HTML:    html,
		Text:    "Reset your password: " + link,
		Tags:    map[string]string{"category": "password_reset"},
	})
}

// SendAlertDigest sends the daily alert list.
func (m *Mailer) SendAlertDigest(ctx context.Context, to, farm string, lines []AlertLine) (string, error) {
	html, err := render(digestTmpl, struct {
		Farm  string
		Lines []AlertLine
	}{farm, lines})
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s: %d alerts", farm, len(lines)),
		HTML:    html,
		Tags:    map[string]string{"category": "alert_digest"},
	})
}

// SendReport sends a plain text report.
func (m *Mailer) SendReport(ctx context.Context, to, subject, body string) (string, error) {
	html, err := render(reportTmpl, body)
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
		Text:    body,
		Tags:    map[string]string{"category": "report"},
	})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
