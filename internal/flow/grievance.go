package flow

import (
	"strings"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/internal/session"
)

const (
	minNameLen        = 2
	minDescriptionLen = 10
	minPurposeLen     = 5
)

func transitionGrievance(next *session.Session, ev Event, deps Deps) Result {
	lang := next.Language

	switch next.Step {
	case session.StepGrievanceName:
		name := strings.TrimSpace(ev.Text)
		if !ev.isPlainText() || len([]rune(name)) < minNameLen {
			return reprompt(next, deps, "grievance.name.invalid", "grievance.name.prompt")
		}
		next.Collected["name"] = name
		next.Step = session.StepGrievanceDepartment
		return Result{
			Next:    next,
			Intents: []Intent{departmentListPrompt(lang, "grievance.department.prompt", deps)},
		}

	case session.StepGrievanceDepartment:
		dept, fallback := resolveDepartment(ev, lang, deps)
		next.Collected["department"] = dept
		next.Step = session.StepGrievanceDescription
		res := Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "grievance.description.prompt"))},
		}
		if fallback {
			res.Warnings = append(res.Warnings,
				"grievance department selection did not resolve, recorded fallback category")
		}
		return res

	case session.StepGrievanceDescription:
		desc := strings.TrimSpace(ev.Text)
		if !ev.isPlainText() || len([]rune(desc)) < minDescriptionLen {
			return reprompt(next, deps, "grievance.description.invalid", "grievance.description.prompt")
		}
		next.Collected["description"] = desc
		next.Step = session.StepGrievancePhoto
		return Result{
			Next:    next,
			Intents: []Intent{sendText(deps.text(lang, "grievance.photo.prompt"))},
		}

	case session.StepGrievancePhoto:
		switch {
		case ev.Kind == EventMedia && ev.MediaRef != "":
			next.Collected["media"] = ev.MediaRef
		case ev.isPlainText() && normalize(ev.Text) == "skip":
			// proceed without a photo
		default:
			return reprompt(next, deps, "grievance.photo.invalid", "grievance.photo.prompt")
		}
		next.Step = session.StepGrievanceConfirm
		return Result{
			Next: next,
			Intents: []Intent{sendButtons(
				deps.text(lang, "grievance.confirm.prompt",
					next.Collected["name"],
					deps.departmentName(lang, next.Collected["department"]),
					next.Collected["description"],
				),
				confirmButtons(lang, deps)...,
			)},
		}

	case session.StepGrievanceConfirm:
		switch {
		case isConfirm(ev):
			draft := &cases.Draft{
				Kind:         cases.KindGrievance,
				CitizenName:  next.Collected["name"],
				CitizenPhone: next.Key,
				DepartmentID: next.Collected["department"],
				Description:  next.Collected["description"],
				MediaRef:     next.Collected["media"],
			}
			success := Intent{
				Kind:           IntentSendText,
				Text:           deps.text(lang, "grievance.success", "%s"),
				WantsReference: true,
			}
			return Result{
				Next: freshAfterSubmit(next),
				Intents: []Intent{
					allocateReference("GRV"),
					persistCase(draft),
					notify(),
					success,
					clearSession(),
				},
			}
		case isDecline(ev):
			return Result{
				Next:    freshAfterSubmit(next),
				Intents: []Intent{sendText(deps.text(lang, "grievance.cancelled")), clearSession()},
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

	// Invalid step for this flow: restart the conversation.
	return enterLanguageSelect(next.Key, deps)
}

// reprompt is a no-op transition: the step is unchanged and the citizen
// gets the validation message followed by the original prompt.
func reprompt(next *session.Session, deps Deps, invalidKey, promptKey string) Result {
	lang := next.Language
	return Result{
		Next: next,
		Intents: []Intent{
			sendText(deps.text(lang, invalidKey)),
			sendText(deps.text(lang, promptKey)),
		},
	}
}

// freshAfterSubmit returns the empty post-submission session. The
// ClearSession intent removes the stored copy; this keeps the in-memory
// result consistent with it.
func freshAfterSubmit(next *session.Session) *session.Session {
	fresh := session.New(next.Key, next.LastActivityAt)
	return fresh
}
