package whatsapp

import "time"

// WebhookEvent is the top-level structure received from Meta's webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a single entry in the webhook payload.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries one batch of inbound messages or status updates.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue is the payload of a messages-field change.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Contact identifies the sender.
type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

// Profile is the sender's display profile.
type Profile struct {
	Name string `json:"name"`
}

// Message is one inbound message.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Image       *Media       `json:"image,omitempty"`
	Document    *Media       `json:"document,omitempty"`
}

// Text is a plain text body.
type Text struct {
	Body string `json:"body"`
}

// Interactive is a button or list reply.
type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

// Reply is the tapped option.
type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Media is an inbound image or document attachment.
type Media struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
}

// Status is a delivery receipt for an outbound message. The intake engine
// acknowledges and drops these.
type Status struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ParsedInboundMessage is the normalized result of parsing a webhook event.
type ParsedInboundMessage struct {
	SenderID   string
	SenderName string
	MessageID  string
	Timestamp  time.Time
	Type       string
	Text       string
	ReplyID    string
	ReplyTitle string
	MediaID    string
}

// sendRequest is the payload posted to the Cloud API to send a message.
type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *Text            `json:"text,omitempty"`
	Interactive      *sendInteractive `json:"interactive,omitempty"`
}

type sendInteractive struct {
	Type   string     `json:"type"`
	Body   sendBody   `json:"body"`
	Action sendAction `json:"action"`
}

type sendBody struct {
	Text string `json:"text"`
}

type sendAction struct {
	Buttons  []sendButton  `json:"buttons,omitempty"`
	Button   string        `json:"button,omitempty"`
	Sections []sendSection `json:"sections,omitempty"`
}

type sendButton struct {
	Type  string `json:"type"`
	Reply Reply  `json:"reply"`
}

type sendSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []sendRow `json:"rows"`
}

type sendRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SendResponse is the response from the Cloud API after sending a message.
type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *SendError `json:"error,omitempty"`
}

// SendError represents an error returned by the Cloud API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}
