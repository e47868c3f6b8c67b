package flow

import (
	"regexp"
	"strings"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/internal/session"
)

var referencePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{8}$`)

func transitionTrack(next *session.Session, ev Event, deps Deps) Result {
	lang := next.Language

	if next.Step != session.StepTrackReference {
		return enterLanguageSelect(next.Key, deps)
	}

	reference := strings.ToUpper(strings.TrimSpace(ev.Text))
	if !referencePattern.MatchString(reference) {
		// Not a reference token: fall back to the citizen's own history.
		reference = ""
	}

	var found *cases.Case
	if deps.FindCase != nil {
		if c, ok := deps.FindCase(reference, next.Key); ok {
			found = c
		}
	}

	next.Flow = session.FlowAwaitingNext
	next.Step = session.StepNone

	var body Intent
	if found == nil {
		body = sendText(deps.text(lang, "track.notfound"))
	} else {
		body = sendText(statusCard(lang, found, deps))
	}

	return Result{
		Next:    next,
		Intents: []Intent{body, nextActionPrompt(lang, deps)},
	}
}

func statusCard(lang string, c *cases.Case, deps Deps) string {
	kindLabel := deps.text(lang, "kind."+string(c.Kind))
	statusLabel := deps.text(lang, "status."+c.Status)
	return deps.text(lang, "track.card",
		c.Reference,
		kindLabel,
		c.CitizenName,
		deps.departmentName(lang, c.DepartmentID),
		statusLabel,
		c.CreatedAt.Format("02 Jan 2006"),
	)
}

func nextActionPrompt(lang string, deps Deps) Intent {
	return sendButtons(deps.text(lang, "next.prompt"),
		Button{ID: "next_track", Title: deps.text(lang, "next.track_another")},
		Button{ID: "next_menu", Title: deps.text(lang, "next.main_menu")},
	)
}

var nextActionAliases = map[string]string{
	"next_track":    "track",
	"track another": "track",
	"next_menu":     "menu",
	"main menu":     "menu",
}

func transitionAwaitingNext(next *session.Session, ev Event, deps Deps) Result {
	lang := next.Language

	switch nextActionAliases[ev.selection()] {
	case "track":
		next.Flow = session.FlowTrackStatus
		next.Step = session.StepTrackReference
		return Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "track.prompt"))},
		}
	case "menu":
		return enterMainMenu(next, deps)
	default:
		return Result{
			Next:    next,
			Intents: []Intent{nextActionPrompt(lang, deps)},
		}
	}
}
