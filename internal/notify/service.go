package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

// Notifier tells staff about newly registered cases. Failures are logged,
// not surfaced to the citizen.
type Notifier interface {
	NotifyCaseCreated(ctx context.Context, c cases.Case) error
}

// Service emails the configured staff addresses when a case is filed.
type Service struct {
	email  EmailSender
	staff  []string
	logger *logging.Logger
}

var _ Notifier = (*Service)(nil)

// NewService creates a notification service. A nil email sender or an empty
// staff list turns the service into a logged no-op.
func NewService(email EmailSender, staff []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, staff: staff, logger: logger}
}

// NotifyCaseCreated emails every staff address about the new case.
func (s *Service) NotifyCaseCreated(ctx context.Context, c cases.Case) error {
	if s.email == nil || len(s.staff) == 0 {
		s.logger.Debug("notify: no email sender or staff configured, skipping", "reference", c.Reference)
		return nil
	}

	subject := fmt.Sprintf("New %s %s (%s)", c.Kind, c.Reference, c.DepartmentID)
	body := buildCaseBody(c)

	var failed []string
	for _, to := range s.staff {
		msg := EmailMessage{To: to, Subject: subject, Body: body}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: staff email failed", "error", err, "to", to, "reference", c.Reference)
			failed = append(failed, to)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notify: %d of %d staff emails failed", len(failed), len(s.staff))
	}

	s.logger.Info("staff notified of new case", "reference", c.Reference, "recipients", len(s.staff))
	return nil
}

func buildCaseBody(c cases.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reference: %s\n", c.Reference)
	fmt.Fprintf(&b, "Type: %s\n", c.Kind)
	fmt.Fprintf(&b, "Citizen: %s (%s)\n", c.CitizenName, c.CitizenPhone)
	fmt.Fprintf(&b, "Department: %s\n", c.DepartmentID)
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	if c.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", c.Purpose)
	}
	if c.Date != "" {
		fmt.Fprintf(&b, "Visit: %s %s\n", c.Date, c.TimeSlot)
	}
	if c.MediaRef != "" {
		fmt.Fprintf(&b, "Attachment: %s\n", c.MediaRef)
	}
	fmt.Fprintf(&b, "Filed: %s\n", c.CreatedAt.Format("02 Jan 2006 15:04 MST"))
	return b.String()
}
