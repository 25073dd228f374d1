package botport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Package botport provides the outbound interface between the survey controller and chat adapters.
// Adapters translate ChoiceSet into their own keyboard markup; the controller never sees it.

// Choice is a single quick-reply option. Token is returned verbatim as the selection payload.
type Choice struct {
	Text  string
	Token string
}

// ChoiceSet is a fixed set of quick-reply options laid out in rows.
type ChoiceSet [][]Choice

// Empty reports whether the set carries no options.
func (cs ChoiceSet) Empty() bool {
	for _, row := range cs {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Tokens returns every token in the set in row order.
func (cs ChoiceSet) Tokens() []string {
	var out []string
	for _, row := range cs {
		for _, c := range row {
			out = append(out, c.Token)
		}
	}
	return out
}

// BotMessage captures adapter-agnostic identifiers for previously sent messages.
type BotMessage struct {
	ChatID    int64
	MessageID int
	Transport string
	Payload   string
	Meta      map[string]string
}

// BotError wraps adapter failures with retry hints and normalized codes.
type BotError struct {
	Op         string
	Code       string
	RetryAfter time.Duration
	Wrapped    error
}

const (
	CodeMessageNotModified = "message_not_modified"
	CodeRateLimited        = "rate_limited"
	CodeBadRequest         = "bad_request"
	CodeForbidden          = "forbidden"
	CodeBadPayload         = "bad_payload"
	CodeUnknown            = "unknown"
)

func (e *BotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// Unwrap exposes the underlying adapter error for errors.Is/As.
func (e *BotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Wrapped
}

// NewBotError builds a BotError with the provided operation/code, preserving the wrapped error.
func NewBotError(op, code string, err error) *BotError {
	return &BotError{
		Op:      op,
		Code:    code,
		Wrapped: err,
	}
}

// IsCode determines whether err represents a BotError with the provided code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var be *BotError
	if errors.As(err, &be) {
		return be != nil && be.Code == code
	}
	return false
}

// BotPort abstracts outbound message operations for adapters (Telegram, fake, etc.).
type BotPort interface {
	SendMessage(ctx context.Context, chatID int64, text string, choices ChoiceSet) (BotMessage, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, choices ChoiceSet) (BotMessage, error)
	AnswerCallback(ctx context.Context, callbackID string, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
