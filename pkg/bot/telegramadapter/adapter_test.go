package telegramadapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnairebot/pkg/fsm"
	"questionnairebot/pkg/ports/botport"
)

type fakeClient struct {
	sendFn   func(chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	editFn   func(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	cbFn     func(callbackID string, text string) error
	deleteFn func(chatID int64, messageID int) error
}

func (f *fakeClient) SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	if f.sendFn == nil {
		return tgbotapi.Message{MessageID: 1, Text: text, Chat: &tgbotapi.Chat{ID: chatID}}, nil
	}
	return f.sendFn(chatID, text, markup)
}

func (f *fakeClient) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if f.editFn == nil {
		return tgbotapi.Message{}, nil
	}
	return f.editFn(chatID, messageID, text, markup)
}

func (f *fakeClient) AnswerCallback(callbackID string, text string) error {
	if f.cbFn == nil {
		return nil
	}
	return f.cbFn(callbackID, text)
}

func (f *fakeClient) DeleteMessage(chatID int64, messageID int) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(chatID, messageID)
}

func newAdapter(t *testing.T, fc *fakeClient) *Adapter {
	t.Helper()
	adapter, err := New(fc, nil)
	require.NoError(t, err)
	return adapter
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestSendMessageBuildsInlineKeyboard(t *testing.T) {
	var got interface{}
	fc := &fakeClient{
		sendFn: func(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
			got = markup
			return tgbotapi.Message{MessageID: 42, Text: text, Chat: &tgbotapi.Chat{ID: chatID}}, nil
		},
	}
	adapter := newAdapter(t, fc)

	choices := botport.ChoiceSet{
		{{Text: "🇷🇺 Россия", Token: "cit:RU"}, {Text: "🇰🇿 Казахстан", Token: "cit:KZ"}},
		{},
		{{Text: "✏️ Другое", Token: "cit:custom"}},
	}
	msg, err := adapter.SendMessage(context.Background(), 7, "hello", choices)
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Equal(t, 42, msg.MessageID)
	assert.Equal(t, "telegram", msg.Transport)
	assert.Equal(t, "hello", msg.Payload)
	assert.Equal(t, "2", msg.Meta["rows"])
	assert.Contains(t, msg.Meta["raw_markup"], "cit:KZ")

	keyboard, ok := got.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "markup is %T", got)
	require.Len(t, keyboard.InlineKeyboard, 2)
	require.Len(t, keyboard.InlineKeyboard[0], 2)
	require.NotNil(t, keyboard.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "cit:KZ", *keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestSendMessageWithoutChoicesHasNoMarkup(t *testing.T) {
	var got interface{} = "unset"
	fc := &fakeClient{
		sendFn: func(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
			got = markup
			return tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}}, nil
		},
	}
	msg, err := newAdapter(t, fc).SendMessage(context.Background(), 1, "x", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, msg.Meta)
}

func TestSendMessageRejectsOversizedToken(t *testing.T) {
	adapter := newAdapter(t, &fakeClient{})
	choices := botport.ChoiceSet{{{Text: "x", Token: fmt.Sprintf("%065d", 0)}}}
	_, err := adapter.SendMessage(context.Background(), 1, "x", choices)
	assert.True(t, botport.IsCode(err, botport.CodeBadPayload))
}

func TestSendMessageWrapsRateLimitError(t *testing.T) {
	fc := &fakeClient{
		sendFn: func(int64, string, interface{}) (tgbotapi.Message, error) {
			return tgbotapi.Message{}, errors.New("Too Many Requests: retry after 3")
		},
	}
	_, err := newAdapter(t, fc).SendMessage(context.Background(), 1, "hi", nil)
	var be *botport.BotError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, botport.CodeRateLimited, be.Code)
	assert.Equal(t, 3*time.Second, be.RetryAfter)
}

func TestAPIErrorRetryAfter(t *testing.T) {
	apiErr := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5}}
	fc := &fakeClient{
		cbFn: func(string, string) error { return fmt.Errorf("failed to answer callback query: %w", apiErr) },
	}
	err := newAdapter(t, fc).AnswerCallback(context.Background(), "cb", "")
	var be *botport.BotError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, botport.CodeRateLimited, be.Code)
	assert.Equal(t, 5*time.Second, be.RetryAfter)
}

func TestEditMessageClassifiesNotModified(t *testing.T) {
	fc := &fakeClient{
		editFn: func(int64, int, string, *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
			return tgbotapi.Message{}, errors.New("Bad Request: message is not modified: specified new message content")
		},
	}
	_, err := newAdapter(t, fc).EditMessage(context.Background(), 1, 2, "text", nil)
	assert.True(t, botport.IsCode(err, botport.CodeMessageNotModified))
}

func TestEditMessageFillsIdentifiers(t *testing.T) {
	var gotMarkup *tgbotapi.InlineKeyboardMarkup
	fc := &fakeClient{
		editFn: func(_ int64, _ int, _ string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
			gotMarkup = markup
			return tgbotapi.Message{}, nil
		},
	}
	msg, err := newAdapter(t, fc).EditMessage(context.Background(), 3, 9, "text", botport.ChoiceSet{{{Text: "a", Token: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), msg.ChatID)
	assert.Equal(t, 9, msg.MessageID)
	require.NotNil(t, gotMarkup)
	assert.Len(t, gotMarkup.InlineKeyboard, 1)
}

func TestDeleteMessageErrors(t *testing.T) {
	fc := &fakeClient{
		deleteFn: func(int64, int) error { return errors.New("Forbidden: bot was blocked by the user") },
	}
	err := newAdapter(t, fc).DeleteMessage(context.Background(), 1, 2)
	assert.True(t, botport.IsCode(err, botport.CodeForbidden))
}

func TestCanceledContextSkipsClient(t *testing.T) {
	called := false
	fc := &fakeClient{deleteFn: func(int64, int) error { called = true; return nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newAdapter(t, fc).DeleteMessage(ctx, 1, 2)
	assert.True(t, botport.IsCode(err, "context_canceled"))
	assert.False(t, called)
}

func TestEventFromUpdate(t *testing.T) {
	from := &tgbotapi.User{ID: 10, FirstName: "Иван", LastName: "Иванов"}
	chat := &tgbotapi.Chat{ID: 20}

	t.Run("command", func(t *testing.T) {
		ev, ok := EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
			MessageID: 5, From: from, Chat: chat, Text: "/Start",
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
		}})
		require.True(t, ok)
		assert.Equal(t, fsm.KindCommand, ev.Kind)
		assert.Equal(t, "start", ev.Command)
		assert.Equal(t, int64(10), ev.UserID)
		assert.Equal(t, int64(20), ev.ChatID)
		assert.Equal(t, "Иван Иванов", ev.UserName)
	})

	t.Run("text", func(t *testing.T) {
		ev, ok := EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 6, From: from, Chat: chat, Text: "Иванов Иван"}})
		require.True(t, ok)
		assert.Equal(t, fsm.KindText, ev.Kind)
		assert.Equal(t, "Иванов Иван", ev.Text)
		assert.Equal(t, 6, ev.MessageID)
	})

	t.Run("selection", func(t *testing.T) {
		ev, ok := EventFromUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID: "cb1", From: from, Data: "cit:RU",
			Message: &tgbotapi.Message{MessageID: 77, Chat: chat},
		}})
		require.True(t, ok)
		assert.Equal(t, fsm.KindSelection, ev.Kind)
		assert.Equal(t, "cit:RU", ev.Token)
		assert.Equal(t, "cb1", ev.CallbackID)
		assert.Equal(t, 77, ev.MessageID)
	})

	t.Run("ignored", func(t *testing.T) {
		_, ok := EventFromUpdate(tgbotapi.Update{})
		assert.False(t, ok)
		_, ok = EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Text: "x"}})
		assert.False(t, ok)
		_, ok = EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat}})
		assert.False(t, ok, "stickers and photos carry no text")
		_, ok = EventFromUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{ID: "x", From: from}})
		assert.False(t, ok)
	})
}
