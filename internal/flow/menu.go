package flow

import (
	"github.com/civicdesk/civic-portal/internal/session"
)

var menuAliases = map[string]string{
	"menu_grievance":   "grievance",
	"menu_appointment": "appointment",
	"menu_track":       "track",
	"grievance":        "grievance",
	"complaint":        "grievance",
	"1":                "grievance",
	"appointment":      "appointment",
	"booking":          "appointment",
	"2":                "appointment",
	"track":            "track",
	"status":           "track",
	"3":                "track",
}

func transitionMainMenu(next *session.Session, ev Event, deps Deps) Result {
	lang := next.Language
	choice, ok := menuAliases[ev.selection()]
	if !ok {
		return Result{
			Next: next,
			Intents: []Intent{
				sendText(deps.text(lang, "menu.invalid")),
				mainMenuPrompt(lang, deps),
			},
		}
	}

	switch choice {
	case "grievance":
		if !deps.Capabilities.Grievance {
			return serviceUnavailable(next, deps)
		}
		next.Flow = session.FlowGrievance
		next.Step = session.StepGrievanceName
		next.Collected = map[string]string{}
		return Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "grievance.name.prompt"))},
		}
	case "appointment":
		if !deps.Capabilities.Appointment {
			return serviceUnavailable(next, deps)
		}
		next.Flow = session.FlowAppointment
		next.Step = session.StepAppointmentDepartment
		next.Collected = map[string]string{}
		return Result{
			Next:    next,
			Intents: []Intent{departmentListPrompt(lang, "appointment.department.prompt", deps)},
		}
	case "track":
		if !deps.Capabilities.Tracking {
			return serviceUnavailable(next, deps)
		}
		next.Flow = session.FlowTrackStatus
		next.Step = session.StepTrackReference
		next.Collected = map[string]string{}
		return Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "track.prompt"))},
		}
	}

	return serviceUnavailable(next, deps)
}

func serviceUnavailable(next *session.Session, deps Deps) Result {
	lang := next.Language
	return Result{
		Next: next,
		Intents: []Intent{
			sendText(deps.text(lang, "menu.unavailable")),
			mainMenuPrompt(lang, deps),
		},
	}
}
