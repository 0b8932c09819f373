package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// AdmissionEmailData holds data for the admission update email.
type AdmissionEmailData struct {
	Email     string
	Name      string
	EventName string
	EventDate string
	Status    ParticipantStatus
	// Parking is one of "granted", "waitlisted" or "" when not requested.
	Parking string
}
