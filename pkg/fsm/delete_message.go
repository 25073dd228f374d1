package fsm

import (
	"context"
	"log/slog"
)

// deleteUserTextMessage removes the user's typed answer when enabled.
func (c *Controller) deleteUserTextMessage(ctx context.Context, t *turn) {
	if !c.survey.DeleteUserMessages {
		return
	}
	if t.ev.Kind != KindText || t.ev.MessageID == 0 {
		return
	}
	if err := c.bot.DeleteMessage(ctx, t.ev.ChatID, t.ev.MessageID); err != nil {
		c.transportFailed(t, "delete_message", err)
		return
	}
	t.log.Debug("message.deleted", slog.Int("message_id", t.ev.MessageID))
}
