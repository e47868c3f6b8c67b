package flow

import "github.com/civicdesk/civic-portal/internal/cases"

// IntentKind enumerates the declarative side effects a transition can ask
// the orchestrator to perform.
type IntentKind string

const (
	IntentSendText          IntentKind = "send_text"
	IntentSendButtons       IntentKind = "send_buttons"
	IntentSendList          IntentKind = "send_list"
	IntentAllocateReference IntentKind = "allocate_reference"
	IntentPersistCase       IntentKind = "persist_case"
	IntentNotify            IntentKind = "notify"
	IntentClearSession      IntentKind = "clear_session"
)

// Button is an interactive reply button (the channel caps these at 3).
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable row in a list message.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups list rows under a heading.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Intent is one side-effect instruction. The orchestrator executes intents
// strictly in the order they were emitted.
type Intent struct {
	Kind IntentKind

	// Text carries the body for the send intents. When WantsReference is
	// set it contains one %s verb filled with the reference id allocated
	// earlier in the same intent list.
	Text           string
	WantsReference bool

	Buttons     []Button
	ButtonLabel string
	Sections    []ListSection

	// RefPrefix is set on AllocateReference ("GRV" or "APT").
	RefPrefix string

	// Draft is set on PersistCase; its Reference field is filled by the
	// orchestrator from the preceding allocation.
	Draft *cases.Draft
}

func sendText(text string) Intent {
	return Intent{Kind: IntentSendText, Text: text}
}

func sendButtons(text string, buttons ...Button) Intent {
	return Intent{Kind: IntentSendButtons, Text: text, Buttons: buttons}
}

func sendList(text, buttonLabel string, sections ...ListSection) Intent {
	return Intent{Kind: IntentSendList, Text: text, ButtonLabel: buttonLabel, Sections: sections}
}

func allocateReference(prefix string) Intent {
	return Intent{Kind: IntentAllocateReference, RefPrefix: prefix}
}

func persistCase(draft *cases.Draft) Intent {
	return Intent{Kind: IntentPersistCase, Draft: draft}
}

func notify() Intent {
	return Intent{Kind: IntentNotify}
}

func clearSession() Intent {
	return Intent{Kind: IntentClearSession}
}
