package telegramadapter

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questionnairebot/pkg/fsm"
)

// EventFromUpdate converts a Telegram update into a controller event. The
// second result is false for updates the survey does not handle.
func EventFromUpdate(update tgbotapi.Update) (fsm.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		return eventFromCallback(update.CallbackQuery)
	case update.Message != nil:
		return eventFromMessage(update.Message)
	default:
		return fsm.Event{}, false
	}
}

func eventFromMessage(msg *tgbotapi.Message) (fsm.Event, bool) {
	if msg.From == nil || msg.Chat == nil {
		return fsm.Event{}, false
	}
	ev := fsm.Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		UserName:  displayName(msg.From),
		MessageID: msg.MessageID,
	}
	if msg.IsCommand() {
		ev.Kind = fsm.KindCommand
		ev.Command = strings.ToLower(msg.Command())
		ev.Text = msg.CommandArguments()
		return ev, true
	}
	if strings.TrimSpace(msg.Text) == "" {
		return fsm.Event{}, false
	}
	ev.Kind = fsm.KindText
	ev.Text = msg.Text
	return ev, true
}

func eventFromCallback(query *tgbotapi.CallbackQuery) (fsm.Event, bool) {
	if query.From == nil || query.Message == nil || query.Message.Chat == nil {
		return fsm.Event{}, false
	}
	return fsm.Event{
		Kind:       fsm.KindSelection,
		UserID:     query.From.ID,
		ChatID:     query.Message.Chat.ID,
		UserName:   displayName(query.From),
		Token:      query.Data,
		CallbackID: query.ID,
		MessageID:  query.Message.MessageID,
	}, true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
