// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	// Send renders the template with the personalisation and delivers it to one recipient.
	Send(toEmail, templateId string, personalisation map[string]string) error
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	baseURL     string
}

func NewEmailService(host string, port int, username, password, senderEmail, baseURL string) IEmailService {
	return NewEmailServiceWithSender(gomail.NewDialer(host, port, username, password), senderEmail, baseURL)
}

func NewEmailServiceWithSender(sender Sender, senderEmail, baseURL string) IEmailService {
	return &emailService{
		sender:      sender,
		senderEmail: senderEmail,
		baseURL:     baseURL,
	}
}

func (s *emailService) Send(toEmail, templateId string, personalisation map[string]string) error {
	subject, body, err := Render(templateId, s.baseURL, personalisation)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s to %s: %w", templateId, toEmail, err)
	}
	return nil
}

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	"APPLICATION_WITHDRAWN": {
		subject: "Approved Premises application withdrawn: {{.crn}}",
		body: parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #0b0c0c;">
			<h2>Application withdrawn</h2>
			<p>The application for CRN <strong>{{.crn}}</strong> has been withdrawn{{if .withdrawnBy}} by {{.withdrawnBy}}{{end}}.</p>
			<p><a href="{{.applicationUrl}}">View the application</a></p>
		</div>`),
	},
	"ASSESSMENT_WITHDRAWN": {
		subject: "Assessment no longer required: {{.crn}}",
		body: parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #0b0c0c;">
			<h2>Assessment withdrawn</h2>
			<p>The application for CRN <strong>{{.crn}}</strong> has been withdrawn, so the assessment allocated to you is no longer required.</p>
		</div>`),
	},
	"PLACEMENT_REQUEST_WITHDRAWN": {
		subject: "Request for placement withdrawn: {{.crn}}",
		body: parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #0b0c0c;">
			<h2>Request for placement withdrawn</h2>
			<p>A request for placement for CRN <strong>{{.crn}}</strong>{{if .startDate}} from {{.startDate}} to {{.endDate}}{{end}} has been withdrawn{{if .withdrawnBy}} by {{.withdrawnBy}}{{end}}.</p>
			<p><a href="{{.applicationUrl}}">View the application</a></p>
		</div>`),
	},
	"MATCH_REQUEST_WITHDRAWN": {
		subject: "Request for placement withdrawn: {{.crn}}",
		body: parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #0b0c0c;">
			<h2>Placement request withdrawn</h2>
			<p>The placement request for CRN <strong>{{.crn}}</strong>{{if .startDate}} starting {{.startDate}}{{end}} has been withdrawn and no longer needs to be matched.</p>
		</div>`),
	},
	"BOOKING_WITHDRAWN": {
		subject: "Placement withdrawn: {{.crn}}",
		body: parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #0b0c0c;">
			<h2>Placement withdrawn</h2>
			<p>The placement for CRN <strong>{{.crn}}</strong> at {{.premisesName}} from {{.arrivalDate}} to {{.departureDate}} has been withdrawn.</p>
			{{if .cancellationReason}}<p>Reason: {{.cancellationReason}}</p>{{end}}
		</div>`),
	},
}

func parse(body string) *template.Template {
	return template.Must(template.New("body").Option("missingkey=zero").Parse(body))
}

// Render returns the subject and HTML body for a template.
func Render(templateId, baseURL string, personalisation map[string]string) (string, string, error) {
	tpl, ok := templates[templateId]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", templateId)
	}

	data := make(map[string]string, len(personalisation)+1)
	for k, v := range personalisation {
		data[k] = v
	}
	if id := data["applicationId"]; id != "" && baseURL != "" {
		data["applicationUrl"] = fmt.Sprintf("%s/applications/%s", baseURL, id)
	}

	subjectTpl, err := template.New("subject").Option("missingkey=zero").Parse(tpl.subject)
	if err != nil {
		return "", "", err
	}
	var subject, body bytes.Buffer
	if err := subjectTpl.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}
