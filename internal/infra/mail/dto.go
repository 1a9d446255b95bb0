package mail

type AssignmentEmailData struct {
	SalesName  string
	ClientName string
	LeadID     string
	LeadURL    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// BaseURL is prefixed to /leads/{id} in the message link; optional.
	BaseURL string

	dialer dialer
}
