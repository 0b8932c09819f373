package services

import (
	"context"
	"fmt"
	"log/slog"

	"clubevents/internal/domain"
)

const admissionTemplate = "admission_update"

type admissionNotifier struct {
	users    domain.UserRepository
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewAdmissionNotifier returns an AdmissionNotifier that emails the participant using the
// "admission_update" template.
func NewAdmissionNotifier(users domain.UserRepository, mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.AdmissionNotifier {
	return &admissionNotifier{users: users, mailer: mailer, renderer: renderer, logger: logger}
}

func (n *admissionNotifier) NotifyAdmission(ctx context.Context, event *domain.Event, p *domain.Participant) error {
	if event == nil || p == nil {
		return fmt.Errorf("admission notification data is nil")
	}
	user, err := n.users.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", p.UserID, err)
	}
	if user.Email == "" {
		n.logger.Debug("admission email skipped, no address on file", "participant_id", p.ID, "user_id", p.UserID)
		return nil
	}

	data := &domain.AdmissionEmailData{
		Email:     user.Email,
		Name:      user.Name,
		EventName: event.Name,
		EventDate: event.Date.Format(domain.EventDateLayout),
		Status:    p.Status,
		Parking:   p.ParkingOutcome(),
	}
	subject, htmlBody, textBody, err := n.renderer.Render(admissionTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", admissionTemplate, err)
	}
	if err := n.mailer.Send(ctx, user.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send admission email: %w", err)
	}
	n.logger.Info("admission email sent", "participant_id", p.ID, "status", p.Status)
	return nil
}
