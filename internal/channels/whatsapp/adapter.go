package whatsapp

import "github.com/civicdesk/civic-portal/internal/flow"

// ToFlowEvent converts a parsed inbound message into the flow engine's
// event shape. The boolean is false for message types the flows cannot use.
func ToFlowEvent(msg ParsedInboundMessage) (flow.Event, bool) {
	ev := flow.Event{
		SessionKey: msg.SenderID,
		MessageID:  msg.MessageID,
		Text:       msg.Text,
	}

	switch msg.Type {
	case "text":
		ev.Kind = flow.EventText
	case "button":
		ev.Kind = flow.EventButton
		ev.SelectedID = msg.ReplyID
		ev.Text = msg.ReplyTitle
	case "list":
		ev.Kind = flow.EventList
		ev.SelectedID = msg.ReplyID
		ev.Text = msg.ReplyTitle
	case "image", "document":
		ev.Kind = flow.EventMedia
		ev.MediaRef = msg.MediaID
	default:
		return flow.Event{}, false
	}

	return ev, true
}
