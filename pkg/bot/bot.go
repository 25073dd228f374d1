// Package bot wraps the Telegram Bot API client used by the adapter and the
// update loop.
package bot

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questionnairebot/pkg/logx"
)

type Client struct {
	api    *tgbotapi.BotAPI
	Self   *tgbotapi.User
	logger *slog.Logger
}

func NewClient(token string, debug bool, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token cannot be empty")
	}
	logger = logx.Component(logger, "tg")

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api instance: %w", err)
	}
	api.Debug = debug

	logger.Debug("tg.verify_token")
	me, err := api.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to verify bot token with GetMe(): %w", err)
	}
	logger.Info("tg.authorized", slog.String("username", me.UserName))

	return &Client{
		api:    api,
		Self:   &me,
		logger: logger,
	}, nil
}

func (c *Client) SendMessage(chatID int64, text string, markup interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = ""
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	return sentMsg, nil
}

// EditMessageText replaces the text and inline keyboard of messageID. A zero
// messageID sends a new message instead.
func (c *Client) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if messageID == 0 {
		c.logger.Warn("tg.edit_without_message_id", slog.Int64("chat_id", chatID))
		if markup == nil {
			return c.SendMessage(chatID, text, nil)
		}
		return c.SendMessage(chatID, text, *markup)
	}

	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = ""
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sentMsg, err := c.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("failed to edit message %d: %w", messageID, err)
	}
	return sentMsg, nil
}

func (c *Client) AnswerCallback(callbackID string, text string) error {
	if callbackID == "" {
		return fmt.Errorf("callbackID cannot be empty")
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback query %s: %w", callbackID, err)
	}
	return nil
}

func (c *Client) DeleteMessage(chatID int64, messageID int) error {
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func (c *Client) GetUpdatesChan(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return c.api.GetUpdatesChan(u)
}

func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

// SetWebhook registers url with Telegram so updates are pushed instead of polled.
func (c *Client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	info, err := c.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("failed to read webhook info: %w", err)
	}
	if info.LastErrorDate != 0 {
		c.logger.Warn("tg.webhook_last_error", slog.String("err", info.LastErrorMessage))
	}
	c.logger.Info("tg.webhook_set", slog.String("url", url), slog.Int("pending", info.PendingUpdateCount))
	return nil
}

// RemoveWebhook switches the bot back to long polling.
func (c *Client) RemoveWebhook() error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
