package notify

// Event is the envelope sent to connected editor windows.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Event types understood by the editor.
const (
	EventUpdateAvailable = "update-available"
	EventNotification    = "notification"
)

// Notification is the payload for plain notification events.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"` // info, warn, error
}

// UpdateEvent wraps an update decision in an event envelope.
func UpdateEvent(decision any) Event {
	return Event{Type: EventUpdateAvailable, Payload: decision}
}

// NotificationEvent builds a notification event.
func NotificationEvent(title, message, level string) Event {
	return Event{
		Type:    EventNotification,
		Payload: Notification{Title: title, Message: message, Level: level},
	}
}
