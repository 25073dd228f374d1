// Package telegramadapter implements botport.BotPort on top of the Telegram
// client and converts Telegram updates into controller events.
package telegramadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questionnairebot/pkg/bot"
	"questionnairebot/pkg/logx"
	"questionnairebot/pkg/ports/botport"
)

// maxCallbackData is Telegram's limit for inline button payloads.
const maxCallbackData = 64

type telegramClient interface {
	SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error)
	EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	DeleteMessage(chatID int64, messageID int) error
}

// Adapter wraps a Telegram client and satisfies botport.BotPort.
type Adapter struct {
	client telegramClient
	logger *slog.Logger
}

var _ telegramClient = (*bot.Client)(nil)
var _ botport.BotPort = (*Adapter)(nil)

// New constructs a Telegram adapter with the provided bot client and logger.
func New(client telegramClient, logger *slog.Logger) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("telegramadapter: client is nil")
	}
	return &Adapter{
		client: client,
		logger: logx.Component(logger, "tg"),
	}, nil
}

// SendMessage dispatches a new Telegram message and returns a botport.BotMessage record.
func (a *Adapter) SendMessage(ctx context.Context, chatID int64, text string, choices botport.ChoiceSet) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("send_message", err)
	}
	keyboard, err := toInlineKeyboard(choices)
	if err != nil {
		return botport.BotMessage{}, botport.NewBotError("send_message", botport.CodeBadPayload, err)
	}

	var markup interface{}
	if keyboard != nil {
		markup = *keyboard
	}
	msg, err := a.client.SendMessage(chatID, text, markup)
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("send_message", chatID, 0, err)
	}
	bm := toBotMessage(msg, keyboard)
	a.logger.Debug("tg.send_message", slog.Int64("chat_id", bm.ChatID), slog.Int("message_id", bm.MessageID))
	return bm, nil
}

// EditMessage edits an existing Telegram message.
func (a *Adapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, choices botport.ChoiceSet) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError("edit_message", err)
	}
	keyboard, err := toInlineKeyboard(choices)
	if err != nil {
		return botport.BotMessage{}, botport.NewBotError("edit_message", botport.CodeBadPayload, err)
	}
	msg, err := a.client.EditMessageText(chatID, messageID, text, keyboard)
	if err != nil {
		return botport.BotMessage{}, a.wrapAndLogError("edit_message", chatID, messageID, err)
	}
	bm := toBotMessage(msg, keyboard)
	if bm.MessageID == 0 {
		bm.MessageID = messageID
	}
	if bm.ChatID == 0 {
		bm.ChatID = chatID
	}
	a.logger.Debug("tg.edit_message", slog.Int64("chat_id", bm.ChatID), slog.Int("message_id", bm.MessageID))
	return bm, nil
}

// AnswerCallback acknowledges a callback query, optionally with a short notice.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError("answer_callback", err)
	}
	if err := a.client.AnswerCallback(callbackID, text); err != nil {
		return a.wrapAndLogError("answer_callback", 0, 0, err)
	}
	a.logger.Debug("tg.answer_callback", slog.String("callback_id", callbackID))
	return nil
}

func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError("delete_message", err)
	}
	if err := a.client.DeleteMessage(chatID, messageID); err != nil {
		return a.wrapAndLogError("delete_message", chatID, messageID, err)
	}
	a.logger.Debug("tg.delete_message", slog.Int64("chat_id", chatID), slog.Int("message_id", messageID))
	return nil
}

func (a *Adapter) wrapAndLogError(op string, chatID int64, messageID int, err error) error {
	wrapped := wrapTelegramError(op, err)
	a.logger.Warn("tg."+op+"_failed",
		slog.Int64("chat_id", chatID),
		slog.Int("message_id", messageID),
		slog.String("code", getBotErrorCode(wrapped)),
		slog.String("err", err.Error()),
	)
	return wrapped
}

// toInlineKeyboard lays choices out as inline keyboard rows. An empty set
// yields nil.
func toInlineKeyboard(choices botport.ChoiceSet) (*tgbotapi.InlineKeyboardMarkup, error) {
	if choices.Empty() {
		return nil, nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, row := range choices {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			if choice.Token == "" {
				return nil, fmt.Errorf("choice %q has no token", choice.Text)
			}
			if len(choice.Token) > maxCallbackData {
				return nil, fmt.Errorf("choice token %q exceeds %d bytes", choice.Token, maxCallbackData)
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(choice.Text, choice.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard, nil
}

func toBotMessage(msg tgbotapi.Message, keyboard *tgbotapi.InlineKeyboardMarkup) botport.BotMessage {
	payload := msg.Text
	if payload == "" {
		payload = msg.Caption
	}
	return botport.BotMessage{
		ChatID:    chatIDFromMessage(msg),
		MessageID: msg.MessageID,
		Transport: "telegram",
		Payload:   payload,
		Meta:      metaFromKeyboard(keyboard),
	}
}

func metaFromKeyboard(keyboard *tgbotapi.InlineKeyboardMarkup) map[string]string {
	if keyboard == nil {
		return nil
	}
	meta := map[string]string{
		"markup_type": "inline_keyboard",
		"rows":        strconv.Itoa(len(keyboard.InlineKeyboard)),
	}
	if raw, err := json.Marshal(keyboard); err == nil {
		meta["raw_markup"] = string(raw)
	}
	return meta
}

func chatIDFromMessage(msg tgbotapi.Message) int64 {
	if msg.Chat != nil {
		return msg.Chat.ID
	}
	return 0
}

func wrapContextError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &botport.BotError{Op: op, Code: "context_canceled", Wrapped: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &botport.BotError{Op: op, Code: "context_deadline", Wrapped: err}
	}
	return &botport.BotError{Op: op, Code: "context_error", Wrapped: err}
}

func wrapTelegramError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapContextError(op, err)
	}
	code, retry := classifyTelegramError(err)
	return &botport.BotError{
		Op:         op,
		Code:       code,
		RetryAfter: retry,
		Wrapped:    err,
	}
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry after (\d+)`)

func classifyTelegramError(err error) (string, time.Duration) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return botport.CodeRateLimited, time.Duration(apiErr.RetryAfter) * time.Second
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message is not modified"):
		return botport.CodeMessageNotModified, 0
	case strings.Contains(msg, "too many requests"):
		return botport.CodeRateLimited, extractRetryAfter(msg)
	case strings.Contains(msg, "bad request"):
		return botport.CodeBadRequest, 0
	case strings.Contains(msg, "forbidden"):
		return botport.CodeForbidden, 0
	default:
		return botport.CodeUnknown, 0
	}
}

func extractRetryAfter(msg string) time.Duration {
	matches := retryAfterRegex.FindStringSubmatch(msg)
	if len(matches) != 2 {
		return 0
	}
	seconds, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func getBotErrorCode(err error) string {
	var be *botport.BotError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
