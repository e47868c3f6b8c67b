package flow

import (
	"strconv"
	"strings"

	"github.com/civicdesk/civic-portal/internal/i18n"
	"github.com/civicdesk/civic-portal/internal/session"
)

// typed language aliases beyond the native display names.
var languageAliases = map[string]string{
	"english": "en",
	"hindi":   "hi",
	"marathi": "mr",
}

func transitionLanguageSelect(next *session.Session, ev Event, deps Deps) Result {
	code, ok := matchLanguage(ev)
	if !ok {
		return Result{
			Next: next,
			Intents: []Intent{
				sendText(deps.text(next.Language, "language.invalid")),
				languagePrompt(deps),
			},
		}
	}

	next.Language = code
	return enterMainMenu(next, deps)
}

func matchLanguage(ev Event) (string, bool) {
	if id := ev.SelectedID; strings.HasPrefix(id, "lang_") {
		code := strings.TrimPrefix(id, "lang_")
		if i18n.Supported(code) {
			return code, true
		}
		return "", false
	}
	if !ev.isPlainText() {
		return "", false
	}

	input := normalize(ev.Text)
	if i18n.Supported(input) {
		return input, true
	}
	if code, ok := languageAliases[input]; ok {
		return code, true
	}
	for _, l := range i18n.Languages {
		if normalize(l.Name) == input {
			return l.Code, true
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(i18n.Languages) {
		return i18n.Languages[n-1].Code, true
	}
	return "", false
}
