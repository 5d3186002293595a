package main

import (
	"bytes"
	"html/template"

	"github.com/go-mail/mail/v2"
)

type mailer struct {
	dailer *mail.Dialer
	sender string
}

func newMailer(host string, port int, username string, password string, sender string) *mailer {
	dailer := mail.NewDialer(host, port, username, password)
	return &mailer{
		dailer: dailer,
		sender: sender,
	}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
{{define "subject"}}Reminder: "{{.Title}}" is due soon{{end}}

{{define "plainBody"}}Hi {{.Name}},

Your task "{{.Title}}" is due at {{.DueDate}}.

The TaskDeck team{{end}}

{{define "htmlBody"}}<!doctype html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>Your task <strong>{{.Title}}</strong> is due at {{.DueDate}}.</p>
<p>The TaskDeck team</p>
</body>
</html>{{end}}
`))

func (m *mailer) sendTaskReminder(u *user, t task) error {
	data := map[string]any{
		"Name":    u.Name,
		"Title":   t.Title,
		"DueDate": t.DueDate.Format("Mon, 02 Jan 2006 15:04"),
	}
	return m.send(u.Email, reminderTemplate, data)
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	var subject bytes.Buffer
	err := tmpl.ExecuteTemplate(&subject, "subject", data)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", data)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.SetBody("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dailer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}
