package flow

import (
	"fmt"
	"time"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/internal/i18n"
)

// Capabilities gates which top-level services this deployment offers.
type Capabilities struct {
	Grievance   bool
	Appointment bool
	Tracking    bool
}

// DateOffer is a bookable near-future date.
type DateOffer struct {
	ID    string // "date_2006-01-02"
	Label string // "Mon, 02 Jan"
}

// CaseLookup resolves a tracking query. Implementations are read-only;
// the router performs no writes through it. reference is already
// normalized (trimmed, uppercased); when it does not look like a
// reference id the lookup falls back to the citizen's phone number.
type CaseLookup func(reference, phone string) (*cases.Case, bool)

// Deps carries the read-only context a transition needs. Everything here
// is a value or a read-only lookup; Transition performs no writes.
type Deps struct {
	Messages     *i18n.Resolver
	Departments  []cases.Department
	Capabilities Capabilities
	DateOffers   []DateOffer
	TimeSlots    []string
	FindCase     CaseLookup
}

// ComputeDateOffers returns the next n working days strictly after now.
// Sundays are skipped; the civic office is closed.
func ComputeDateOffers(now time.Time, n int) []DateOffer {
	if n <= 0 {
		n = 3
	}
	offers := make([]DateOffer, 0, n)
	day := now
	for len(offers) < n {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Sunday {
			continue
		}
		offers = append(offers, DateOffer{
			ID:    "date_" + day.Format("2006-01-02"),
			Label: day.Format("Mon, 02 Jan"),
		})
	}
	return offers
}

func (d Deps) text(lang, key string, args ...any) string {
	if d.Messages == nil {
		if len(args) > 0 {
			return fmt.Sprintf(key, args...)
		}
		return key
	}
	return d.Messages.Text(lang, key, args...)
}

func (d Deps) departmentName(lang, id string) string {
	if d.Messages == nil {
		return id
	}
	return d.Messages.DepartmentName(lang, id)
}
