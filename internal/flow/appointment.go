package flow

import (
	"strconv"
	"strings"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/internal/session"
)

func transitionAppointment(next *session.Session, ev Event, deps Deps) Result {
	lang := next.Language

	switch next.Step {
	case session.StepAppointmentDepartment:
		dept, fallback := resolveDepartment(ev, lang, deps)
		next.Collected["department"] = dept
		next.Step = session.StepAppointmentName
		res := Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "appointment.name.prompt"))},
		}
		if fallback {
			res.Warnings = append(res.Warnings,
				"appointment department selection did not resolve, recorded fallback category")
		}
		return res

	case session.StepAppointmentName:
		name := strings.TrimSpace(ev.Text)
		if !ev.isPlainText() || len([]rune(name)) < minNameLen {
			return reprompt(next, deps, "appointment.name.invalid", "appointment.name.prompt")
		}
		next.Collected["name"] = name
		next.Step = session.StepAppointmentPurpose
		return Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "appointment.purpose.prompt"))},
		}

	case session.StepAppointmentPurpose:
		purpose := strings.TrimSpace(ev.Text)
		if !ev.isPlainText() || len([]rune(purpose)) < minPurposeLen {
			return reprompt(next, deps, "appointment.purpose.invalid", "appointment.purpose.prompt")
		}
		next.Collected["purpose"] = purpose
		next.Step = session.StepAppointmentDate
		return Result{
			Next:    next,
			Intents: []Intent{datePrompt(lang, deps)},
		}

	case session.StepAppointmentDate:
		offer, ok := matchDateOffer(ev, deps)
		if !ok {
			return Result{
				Next: next,
				Intents: []Intent{
					sendText(deps.text(lang, "appointment.date.invalid")),
					datePrompt(lang, deps),
				},
			}
		}
		next.Collected["date"] = strings.TrimPrefix(offer.ID, "date_")
		next.Collected["date_label"] = offer.Label
		next.Step = session.StepAppointmentTime
		return Result{
			Next:    next,
			Intents: []Intent{timePrompt(lang, deps)},
		}

	case session.StepAppointmentTime:
		slot, ok := matchTimeSlot(ev, deps)
		if !ok {
			return Result{
				Next: next,
				Intents: []Intent{
					sendText(deps.text(lang, "appointment.time.invalid")),
					timePrompt(lang, deps),
				},
			}
		}
		next.Collected["time"] = slot
		next.Step = session.StepAppointmentConfirm
		return Result{
			Next: next,
			Intents: []Intent{sendButtons(
				deps.text(lang, "appointment.confirm.prompt",
					next.Collected["name"],
					deps.departmentName(lang, next.Collected["department"]),
					next.Collected["purpose"],
					next.Collected["date_label"],
					next.Collected["time"],
				),
				confirmButtons(lang, deps)...,
			)},
		}

	case session.StepAppointmentConfirm:
		switch {
		case isConfirm(ev):
			draft := &cases.Draft{
				Kind:         cases.KindAppointment,
				CitizenName:  next.Collected["name"],
				CitizenPhone: next.Key,
				DepartmentID: next.Collected["department"],
				Purpose:      next.Collected["purpose"],
				Date:         next.Collected["date"],
				TimeSlot:     next.Collected["time"],
			}
			success := Intent{
				Kind:           IntentSendText,
				Text:           deps.text(lang, "appointment.success", "%s"),
				WantsReference: true,
			}
			return Result{
				Next: freshAfterSubmit(next),
				Intents: []Intent{
					allocateReference("APT"),
					persistCase(draft),
					notify(),
					success,
					clearSession(),
				},
			}
		case isDecline(ev):
			return Result{
				Next:    freshAfterSubmit(next),
				Intents: []Intent{sendText(deps.text(lang, "appointment.cancelled")), clearSession()},
			}
		default:
			return Result{
				Next: next,
				Intents: []Intent{sendButtons(
					deps.text(lang, "confirm.invalid"),
					confirmButtons(lang, deps)...,
				)},
			}
		}
	}

	return enterLanguageSelect(next.Key, deps)
}

func datePrompt(lang string, deps Deps) Intent {
	rows := make([]ListRow, 0, len(deps.DateOffers))
	for _, offer := range deps.DateOffers {
		rows = append(rows, ListRow{ID: offer.ID, Title: offer.Label})
	}
	return sendList(
		deps.text(lang, "appointment.date.prompt"),
		deps.text(lang, "appointment.date.button"),
		ListSection{Rows: rows},
	)
}

func timePrompt(lang string, deps Deps) Intent {
	buttons := make([]Button, 0, len(deps.TimeSlots))
	for i, slot := range deps.TimeSlots {
		buttons = append(buttons, Button{ID: "slot_" + strconv.Itoa(i), Title: slot})
	}
	return sendButtons(deps.text(lang, "appointment.time.prompt"), buttons...)
}

func matchDateOffer(ev Event, deps Deps) (DateOffer, bool) {
	sel := ev.selection()
	for i, offer := range deps.DateOffers {
		if sel == offer.ID || normalize(offer.Label) == sel {
			return offer, true
		}
		if n, err := strconv.Atoi(sel); err == nil && n == i+1 {
			return offer, true
		}
	}
	return DateOffer{}, false
}

func matchTimeSlot(ev Event, deps Deps) (string, bool) {
	sel := ev.selection()
	for i, slot := range deps.TimeSlots {
		if sel == "slot_"+strconv.Itoa(i) || normalize(slot) == sel {
			return slot, true
		}
		if n, err := strconv.Atoi(sel); err == nil && n == i+1 {
			return slot, true
		}
	}
	return "", false
}
