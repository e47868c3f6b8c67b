package whatsapp

import (
	"testing"

	"github.com/civicdesk/civic-portal/internal/flow"
)

func TestToFlowEvent(t *testing.T) {
	tests := []struct {
		name string
		msg  ParsedInboundMessage
		want flow.Event
		ok   bool
	}{
		{
			name: "text",
			msg:  ParsedInboundMessage{SenderID: "919800000010", MessageID: "wamid.1", Type: "text", Text: "Hi"},
			want: flow.Event{SessionKey: "919800000010", MessageID: "wamid.1", Kind: flow.EventText, Text: "Hi"},
			ok:   true,
		},
		{
			name: "button reply",
			msg:  ParsedInboundMessage{SenderID: "919800000010", MessageID: "wamid.2", Type: "button", ReplyID: "lang_en", ReplyTitle: "English"},
			want: flow.Event{SessionKey: "919800000010", MessageID: "wamid.2", Kind: flow.EventButton, SelectedID: "lang_en", Text: "English"},
			ok:   true,
		},
		{
			name: "list reply",
			msg:  ParsedInboundMessage{SenderID: "919800000010", MessageID: "wamid.3", Type: "list", ReplyID: "dept_water", ReplyTitle: "Water Supply"},
			want: flow.Event{SessionKey: "919800000010", MessageID: "wamid.3", Kind: flow.EventList, SelectedID: "dept_water", Text: "Water Supply"},
			ok:   true,
		},
		{
			name: "image",
			msg:  ParsedInboundMessage{SenderID: "919800000010", MessageID: "wamid.4", Type: "image", MediaID: "media-77", Text: "caption"},
			want: flow.Event{SessionKey: "919800000010", MessageID: "wamid.4", Kind: flow.EventMedia, MediaRef: "media-77", Text: "caption"},
			ok:   true,
		},
		{
			name: "unsupported",
			msg:  ParsedInboundMessage{SenderID: "919800000010", Type: "sticker"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFlowEvent(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("event = %+v, want %+v", got, tt.want)
			}
		})
	}
}
