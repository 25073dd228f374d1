package fsm

// EventKind classifies inbound events.
type EventKind string

const (
	KindCommand   EventKind = "command"
	KindText      EventKind = "text"
	KindSelection EventKind = "selection"
)

// Event is one transport-neutral inbound interaction.
//
// For text and command events MessageID is the user's own message; for
// selections it is the bot message that carried the choices.
type Event struct {
	Kind       EventKind
	UserID     int64
	ChatID     int64
	UserName   string
	Command    string
	Text       string
	Token      string
	CallbackID string
	MessageID  int
}
