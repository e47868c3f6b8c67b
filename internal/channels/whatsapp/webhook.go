package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// WebhookHandler handles WhatsApp webhook verification and inbound messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onMessage   func(msg ParsedInboundMessage) error
}

// NewWebhookHandler creates a new webhook handler.
// onMessage is called for each parsed inbound message; an error means the
// message was not admitted and Meta should redeliver the batch.
func NewWebhookHandler(verifyToken, appSecret string, onMessage func(ParsedInboundMessage) error) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onMessage:   onMessage,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events (incoming messages).
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if !VerifySignature(h.appSecret, body, signature) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Admission is a non-blocking enqueue, so responding after the loop is
	// still fast. A failed admission gets a 503: Meta redelivers the batch
	// and already-processed messages in it are suppressed by their
	// idempotency records.
	messages := ParseWebhookEvent(event)
	for _, msg := range messages {
		if h.onMessage == nil {
			continue
		}
		if err := h.onMessage(msg); err != nil {
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// ParseWebhookEvent extracts ParsedInboundMessages from a webhook event.
// Delivery receipts and unsupported message types are dropped.
func ParseWebhookEvent(event WebhookEvent) []ParsedInboundMessage {
	var messages []ParsedInboundMessage

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range change.Value.Messages {
				parsed := ParsedInboundMessage{
					SenderID:   m.From,
					SenderName: names[m.From],
					MessageID:  m.ID,
					Type:       m.Type,
				}
				if secs, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
					parsed.Timestamp = time.Unix(secs, 0).UTC()
				}

				switch m.Type {
				case "text":
					if m.Text == nil {
						continue
					}
					parsed.Text = m.Text.Body
				case "interactive":
					if m.Interactive == nil {
						continue
					}
					switch {
					case m.Interactive.ButtonReply != nil:
						parsed.Type = "button"
						parsed.ReplyID = m.Interactive.ButtonReply.ID
						parsed.ReplyTitle = m.Interactive.ButtonReply.Title
					case m.Interactive.ListReply != nil:
						parsed.Type = "list"
						parsed.ReplyID = m.Interactive.ListReply.ID
						parsed.ReplyTitle = m.Interactive.ListReply.Title
					default:
						continue
					}
				case "image":
					if m.Image == nil {
						continue
					}
					parsed.MediaID = m.Image.ID
					parsed.Text = m.Image.Caption
				case "document":
					if m.Document == nil {
						continue
					}
					parsed.MediaID = m.Document.ID
					parsed.Text = m.Document.Caption
				default:
					continue
				}

				messages = append(messages, parsed)
			}
		}
	}

	return messages
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if len(signature) <= len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
