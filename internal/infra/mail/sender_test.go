package mail

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func render(t *testing.T, m *gomail.Message) string {
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendAssignment(t *testing.T) {
	d := &recordingDialer{}
	s := &EmailSender{From: "leads@example.com", BaseURL: "https://crm.example.com", dialer: d}

	err := s.SendAssignment("sam@example.com", "Sam", "ABC Corporation", "lead-1")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"sam@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"leads@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"New lead assigned: ABC Corporation"}, m.GetHeader("Subject"))

	body := render(t, m)
	assert.Contains(t, body, "https://crm.example.com/leads/lead-1")
}

func TestSendAssignmentEscapesClientName(t *testing.T) {
	var buf bytes.Buffer
	err := assignmentTemplate.Execute(&buf, AssignmentEmailData{
		SalesName:  "Sam",
		ClientName: "<script>x</script>",
		LeadID:     "lead-1",
	})
	require.NoError(t, err)

	body := buf.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "Lead id: lead-1")
}

func TestSendAssignmentWrapsDialError(t *testing.T) {
	boom := errors.New("connection refused")
	s := &EmailSender{From: "leads@example.com", dialer: &recordingDialer{err: boom}}

	err := s.SendAssignment("sam@example.com", "Sam", "ABC", "lead-1")
	assert.ErrorIs(t, err, boom)
}
