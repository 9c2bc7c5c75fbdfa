// Package notification delivers templated messages over email, SMS and
// push channels, with in-memory delivery records and retry for failed
// sends. The user-facing inbox is a separate concern; this package is the
// outbound side.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Channel is how a message reaches the recipient.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Delivery statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Message is one outbound notification and its delivery record.
type Message struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
}

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// PushSender sends push messages to a device token.
type PushSender interface {
	SendPush(ctx context.Context, token, title, body string) error
}

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string  `json:"id"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// TemplateEngine holds templates and renders them with data maps.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine returns an engine with the marketplace templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range builtinTemplates {
		tpl := t
		e.templates[t.ID] = &tpl
	}
	return e
}

var builtinTemplates = []Template{
	{
		ID:      "order-status",
		Subject: "Order {{order_id}} is {{status}}",
		Body:    "Hello {{name}}, your order {{order_id}} is now {{status}}.",
		Channel: ChannelEmail,
	},
	{
		ID:      "appointment-booked",
		Subject: "Appointment request received",
		Body:    "Hello {{name}}, your appointment on {{date}} at {{time}} is awaiting confirmation.",
		Channel: ChannelEmail,
	},
	{
		ID:      "appointment-status",
		Subject: "Appointment {{status}}",
		Body:    "Hello {{name}}, your appointment on {{date}} at {{time}} is {{status}}.",
		Channel: ChannelEmail,
	},
	{
		ID:      "prescription-issued",
		Subject: "New prescription from Dr. {{doctor}}",
		Body:    "Hello {{name}}, Dr. {{doctor}} issued you a new prescription. It expires on {{expires}}.",
		Channel: ChannelEmail,
	},
	{
		ID:      "prescription-ready",
		Subject: "Your prescription is ready",
		Body:    "Hello {{name}}, your prescription has been dispensed and is ready for pickup.",
		Channel: ChannelEmail,
	},
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render substitutes {{key}} placeholders. Keys missing from data stay in
// place.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (*Template, string, string, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return nil, "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject, body := t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return t, subject, body, nil
}

// Manager sends messages and keeps their delivery records.
type Manager struct {
	email     EmailSender
	sms       SMSSender
	push      PushSender
	templates *TemplateEngine
	log       zerolog.Logger

	mu       sync.RWMutex
	messages map[string]*Message
}

func NewManager(email EmailSender, sms SMSSender, push PushSender, templates *TemplateEngine, log zerolog.Logger) *Manager {
	return &Manager{
		email:     email,
		sms:       sms,
		push:      push,
		templates: templates,
		log:       log,
		messages:  make(map[string]*Message),
	}
}

// Send dispatches the message on its channel and records the outcome.
func (m *Manager) Send(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()
	msg.Status = StatusPending

	err := m.dispatch(ctx, msg)
	m.record(msg, err)
	if err != nil {
		m.log.Warn().Err(err).Str("channel", string(msg.Channel)).
			Str("message_id", msg.ID).Msg("notification send failed")
	}
	return err
}

// SendTemplate renders a template and sends the result.
func (m *Manager) SendTemplate(ctx context.Context, templateID, recipient string, data map[string]string) (*Message, error) {
	t, subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Channel:    t.Channel,
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Data:       data,
	}
	if err := m.Send(ctx, msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Retry re-sends a failed message.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	msg, ok := m.messages[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("message %q not found", id)
	}
	if msg.Status != StatusFailed {
		return fmt.Errorf("message %q is %s, only failed messages retry", id, msg.Status)
	}

	err := m.dispatch(ctx, msg)
	m.record(msg, err)
	return err
}

// Get returns a delivery record by ID.
func (m *Manager) Get(id string) (*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %q not found", id)
	}
	return msg, nil
}

// Stats counts delivery records by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]int)
	for _, msg := range m.messages {
		stats[msg.Status]++
	}
	return stats
}

func (m *Manager) dispatch(ctx context.Context, msg *Message) error {
	switch msg.Channel {
	case ChannelEmail:
		if m.email == nil {
			return errors.New("no email sender configured")
		}
		return m.email.SendEmail(ctx, msg.Recipient, msg.Subject, msg.Body)
	case ChannelSMS:
		if m.sms == nil {
			return errors.New("no sms sender configured")
		}
		return m.sms.SendSMS(ctx, msg.Recipient, msg.Body)
	case ChannelPush:
		if m.push == nil {
			return errors.New("no push sender configured")
		}
		return m.push.SendPush(ctx, msg.Recipient, msg.Subject, msg.Body)
	default:
		return fmt.Errorf("unknown channel %q", msg.Channel)
	}
}

func (m *Manager) record(msg *Message, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		msg.Status = StatusFailed
		msg.Error = err.Error()
	} else {
		msg.Status = StatusSent
		msg.Error = ""
		sentAt := time.Now().UTC()
		msg.SentAt = &sentAt
	}
	m.messages[msg.ID] = msg
}

// LogSender is the default sender in environments without a real
// email/SMS/push provider; it logs the message and reports success.
type LogSender struct {
	Log zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Msg("email (log only)")
	return nil
}

func (s *LogSender) SendSMS(_ context.Context, to, _ string) error {
	s.Log.Info().Str("to", to).Msg("sms (log only)")
	return nil
}

func (s *LogSender) SendPush(_ context.Context, token, title, _ string) error {
	s.Log.Info().Str("token", token).Str("title", title).Msg("push (log only)")
	return nil
}
