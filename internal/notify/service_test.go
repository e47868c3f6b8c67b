package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/civicdesk/civic-portal/internal/cases"
)

type stubSender struct {
	sent []EmailMessage
	err  error
}

func (s *stubSender) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func sampleCase() cases.Case {
	return cases.Case{
		Reference:    "GRV00000042",
		Kind:         cases.KindGrievance,
		CitizenName:  "Asha Rao",
		CitizenPhone: "+919800000010",
		DepartmentID: "water",
		Description:  "No water supply on Tilak Road.",
		Status:       cases.StatusOpen,
		CreatedAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifyCaseCreated(t *testing.T) {
	sender := &stubSender{}
	svc := NewService(sender, []string{"ops@city.example", "desk@city.example"}, nil)

	if err := svc.NotifyCaseCreated(context.Background(), sampleCase()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.Contains(msg.Subject, "GRV00000042") {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, fragment := range []string{"Asha Rao", "+919800000010", "water", "No water supply"} {
		if !strings.Contains(msg.Body, fragment) {
			t.Errorf("body missing %q:\n%s", fragment, msg.Body)
		}
	}
}

func TestNotifyCaseCreatedAppointmentBody(t *testing.T) {
	sender := &stubSender{}
	svc := NewService(sender, []string{"ops@city.example"}, nil)

	c := sampleCase()
	c.Kind = cases.KindAppointment
	c.Reference = "APT00000007"
	c.Description = ""
	c.Purpose = "Property tax review"
	c.Date = "2025-06-03"
	c.TimeSlot = "12:00 PM"

	if err := svc.NotifyCaseCreated(context.Background(), c); err != nil {
		t.Fatalf("notify: %v", err)
	}
	body := sender.sent[0].Body
	if !strings.Contains(body, "Property tax review") || !strings.Contains(body, "2025-06-03 12:00 PM") {
		t.Errorf("body = %s", body)
	}
}

func TestNotifyCaseCreatedNoSenderIsNoOp(t *testing.T) {
	svc := NewService(nil, []string{"ops@city.example"}, nil)
	if err := svc.NotifyCaseCreated(context.Background(), sampleCase()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}

	svc = NewService(&stubSender{}, nil, nil)
	if err := svc.NotifyCaseCreated(context.Background(), sampleCase()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestNotifyCaseCreatedReportsFailures(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	svc := NewService(sender, []string{"ops@city.example"}, nil)

	if err := svc.NotifyCaseCreated(context.Background(), sampleCase()); err == nil {
		t.Fatal("expected failure to surface")
	}
}
