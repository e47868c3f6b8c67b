package flow

import (
	"time"

	"github.com/civicdesk/civic-portal/internal/i18n"
	"github.com/civicdesk/civic-portal/internal/session"
)

// Result is what one transition produces: the next session state plus the
// ordered side effects to execute. Warnings are diagnostics the caller
// should log; the router itself never logs.
type Result struct {
	Next     *session.Session
	Intents  []Intent
	Warnings []string
}

var (
	exitKeywords = map[string]struct{}{
		"exit": {}, "stop": {}, "bye": {}, "quit": {}, "end": {},
		"बंद": {}, "बाहेर": {},
	}
	greetingKeywords = map[string]struct{}{
		"hi": {}, "hello": {}, "hey": {}, "namaste": {}, "start": {}, "restart": {},
		"नमस्ते": {}, "नमस्कार": {},
	}
	menuKeywords = map[string]struct{}{
		"menu": {}, "back": {}, "main menu": {},
	}
	confirmTokens = map[string]struct{}{
		"yes": {}, "y": {}, "confirm": {}, "ok": {}, "okay": {},
		"हाँ": {}, "हां": {}, "हो": {}, "पुष्टि करें": {}, "पुष्टी करा": {},
	}
	declineTokens = map[string]struct{}{
		"no": {}, "n": {}, "cancel": {},
		"नहीं": {}, "नाही": {}, "रद्द करें": {}, "रद्द करा": {},
	}
)

// Transition computes the next session state and side-effect intents for
// one inbound event. It is pure: the input session is never mutated and
// no I/O happens here beyond the injected read-only case lookup.
func Transition(sess *session.Session, ev Event, deps Deps) Result {
	if sess == nil {
		sess = session.New(ev.SessionKey, time.Now().UTC())
	}
	next := sess.Clone()
	lang := next.Language

	// Global overrides run before flow dispatch, in precedence order.
	if ev.isPlainText() {
		input := normalize(ev.Text)

		if _, ok := exitKeywords[input]; ok {
			return Result{
				Next:    session.New(ev.SessionKey, time.Now().UTC()),
				Intents: []Intent{sendText(deps.text(lang, "goodbye.text")), clearSession()},
			}
		}

		if _, ok := greetingKeywords[input]; ok {
			return enterLanguageSelect(ev.SessionKey, deps)
		}

		if _, ok := menuKeywords[input]; ok {
			// Without a chosen language the main menu cannot render; the
			// citizen starts at language selection instead.
			if next.Language == "" {
				return enterLanguageSelect(ev.SessionKey, deps)
			}
			return enterMainMenu(next, deps)
		}

		if input == "help" {
			intents := []Intent{sendText(deps.text(lang, "help.text"))}
			// No language yet: the main menu cannot render, so help leads
			// into language selection just like the menu keyword does.
			if next.Language == "" {
				res := enterLanguageSelect(ev.SessionKey, deps)
				res.Intents = append(intents, res.Intents...)
				return res
			}
			if next.Flow == session.FlowNone || next.Flow == session.FlowMainMenu {
				intents = append(intents, mainMenuPrompt(lang, deps))
				next.Flow = session.FlowMainMenu
				next.Step = session.StepNone
			}
			return Result{Next: next, Intents: intents}
		}
	}

	switch next.Flow {
	case session.FlowNone:
		// First contact with no recognized command: greet with languages.
		return enterLanguageSelect(ev.SessionKey, deps)
	case session.FlowLanguageSelect:
		return transitionLanguageSelect(next, ev, deps)
	case session.FlowMainMenu:
		return transitionMainMenu(next, ev, deps)
	case session.FlowGrievance:
		return transitionGrievance(next, ev, deps)
	case session.FlowAppointment:
		return transitionAppointment(next, ev, deps)
	case session.FlowTrackStatus:
		return transitionTrack(next, ev, deps)
	case session.FlowAwaitingNext:
		return transitionAwaitingNext(next, ev, deps)
	default:
		// Unknown flow state: recover by restarting the conversation.
		return enterLanguageSelect(ev.SessionKey, deps)
	}
}

func enterLanguageSelect(key string, deps Deps) Result {
	next := session.New(key, time.Now().UTC())
	next.Flow = session.FlowLanguageSelect
	return Result{
		Next:    next,
		Intents: []Intent{languagePrompt(deps)},
	}
}

func languagePrompt(deps Deps) Intent {
	buttons := make([]Button, 0, len(i18n.Languages))
	for _, l := range i18n.Languages {
		buttons = append(buttons, Button{ID: "lang_" + l.Code, Title: l.Name})
	}
	return sendButtons(deps.text("", "language.prompt"), buttons...)
}

func enterMainMenu(next *session.Session, deps Deps) Result {
	next.Flow = session.FlowMainMenu
	next.Step = session.StepNone
	next.Collected = map[string]string{}
	return Result{
		Next:    next,
		Intents: []Intent{mainMenuPrompt(next.Language, deps)},
	}
}

func mainMenuPrompt(lang string, deps Deps) Intent {
	return sendButtons(deps.text(lang, "menu.prompt"),
		Button{ID: "menu_grievance", Title: deps.text(lang, "menu.button.grievance")},
		Button{ID: "menu_appointment", Title: deps.text(lang, "menu.button.appointment")},
		Button{ID: "menu_track", Title: deps.text(lang, "menu.button.track")},
	)
}

func departmentListPrompt(lang, promptKey string, deps Deps) Intent {
	rows := make([]ListRow, 0, len(deps.Departments))
	for _, d := range deps.Departments {
		if !d.Active {
			continue
		}
		rows = append(rows, ListRow{
			ID:          "dept_" + d.ID,
			Title:       deps.departmentName(lang, d.ID),
			Description: deps.Messages.DepartmentDescription(lang, d.ID),
		})
	}
	return sendList(
		deps.text(lang, promptKey),
		deps.text(lang, "grievance.department.button"),
		ListSection{Rows: rows},
	)
}

func confirmButtons(lang string, deps Deps) []Button {
	return []Button{
		{ID: "confirm_yes", Title: deps.text(lang, "confirm.yes")},
		{ID: "confirm_no", Title: deps.text(lang, "confirm.no")},
	}
}

func isConfirm(ev Event) bool {
	if ev.SelectedID == "confirm_yes" {
		return true
	}
	_, ok := confirmTokens[normalize(ev.Text)]
	return ok && ev.SelectedID == ""
}

func isDecline(ev Event) bool {
	if ev.SelectedID == "confirm_no" {
		return true
	}
	_, ok := declineTokens[normalize(ev.Text)]
	return ok && ev.SelectedID == ""
}

// resolveDepartment maps a selection to a department id. Unresolvable
// input falls back to the general category; the caller logs the warning.
func resolveDepartment(ev Event, lang string, deps Deps) (id string, fallback bool) {
	sel := ev.selection()
	if len(sel) > 5 && sel[:5] == "dept_" {
		sel = sel[5:]
	}
	for _, d := range deps.Departments {
		if !d.Active {
			continue
		}
		if normalize(d.ID) == sel || normalize(deps.departmentName(lang, d.ID)) == normalize(ev.Text) {
			return d.ID, false
		}
	}
	return "general", true
}
