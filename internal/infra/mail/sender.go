package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

var assignmentTemplate = template.Must(template.New("assignment").Parse(`<p>Hi {{.SalesName}},</p>
<p>A new lead has been assigned to you: <strong>{{.ClientName}}</strong>.</p>
{{if .LeadURL}}<p><a href="{{.LeadURL}}">Open the lead</a></p>{{else}}<p>Lead id: {{.LeadID}}</p>{{end}}
<p>Remember to log the call once you have contacted the client.</p>`))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, baseURL string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) SendAssignment(to, salesName, clientName, leadID string) error {
	m, err := s.buildAssignment(to, salesName, clientName, leadID)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send assignment email: %w", err)
	}

	return nil
}

func (s *EmailSender) buildAssignment(to, salesName, clientName, leadID string) (*gomail.Message, error) {
	data := AssignmentEmailData{
		SalesName:  salesName,
		ClientName: clientName,
		LeadID:     leadID,
	}
	if s.BaseURL != "" {
		data.LeadURL = s.BaseURL + "/leads/" + leadID
	}

	var body bytes.Buffer
	if err := assignmentTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render assignment email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New lead assigned: %s", clientName))
	m.SetBody("text/html", body.String())
	return m, nil
}

// LogSender stands in for SMTP when no mail host is configured.
type LogSender struct {
	Log *logrus.Logger
}

func (s *LogSender) SendAssignment(to, salesName, clientName, leadID string) error {
	s.Log.WithFields(logrus.Fields{
		"to":      to,
		"sales":   salesName,
		"client":  clientName,
		"lead_id": leadID,
	}).Info("assignment notification (mail disabled)")
	return nil
}
