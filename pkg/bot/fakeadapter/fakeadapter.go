// Package fakeadapter records outbound bot operations for headless tests.
package fakeadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"questionnairebot/pkg/ports/botport"
)

const (
	OpSendMessage    = "send_message"
	OpEditMessage    = "edit_message"
	OpAnswerCallback = "answer_callback"
	OpDeleteMessage  = "delete_message"
)

// FakeAdapter implements botport.BotPort for headless tests.
type FakeAdapter struct {
	mu            sync.Mutex
	Calls         []Call
	NextMessageID int
	FailNext      map[string]error
}

// Call captures a bot operation invocation.
type Call struct {
	Op        string
	ChatID    int64
	MessageID int
	Text      string
	Choices   botport.ChoiceSet
	Callback  string
}

// Tokens lists the tokens of the attached choices.
func (c Call) Tokens() []string {
	return c.Choices.Tokens()
}

var _ botport.BotPort = (*FakeAdapter)(nil)

func New() *FakeAdapter {
	return &FakeAdapter{}
}

// SendMessage records a send operation and returns a synthetic BotMessage.
func (f *FakeAdapter) SendMessage(ctx context.Context, chatID int64, text string, choices botport.ChoiceSet) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError(OpSendMessage, err)
	}
	if err := f.maybeFail(OpSendMessage); err != nil {
		return botport.BotMessage{}, err
	}
	msgID := f.nextMessageID()
	f.record(Call{Op: OpSendMessage, ChatID: chatID, MessageID: msgID, Text: text, Choices: choices})
	return f.botMessage(chatID, msgID, text), nil
}

// EditMessage records an edit operation and returns a synthetic BotMessage.
func (f *FakeAdapter) EditMessage(ctx context.Context, chatID int64, messageID int, text string, choices botport.ChoiceSet) (botport.BotMessage, error) {
	if err := ctx.Err(); err != nil {
		return botport.BotMessage{}, wrapContextError(OpEditMessage, err)
	}
	if err := f.maybeFail(OpEditMessage); err != nil {
		return botport.BotMessage{}, err
	}
	if messageID == 0 {
		messageID = f.nextMessageID()
	}
	f.record(Call{Op: OpEditMessage, ChatID: chatID, MessageID: messageID, Text: text, Choices: choices})
	return f.botMessage(chatID, messageID, text), nil
}

// AnswerCallback records a callback acknowledgement.
func (f *FakeAdapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError(OpAnswerCallback, err)
	}
	if err := f.maybeFail(OpAnswerCallback); err != nil {
		return err
	}
	f.record(Call{Op: OpAnswerCallback, Callback: callbackID, Text: text})
	return nil
}

// DeleteMessage records a delete operation.
func (f *FakeAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return wrapContextError(OpDeleteMessage, err)
	}
	if err := f.maybeFail(OpDeleteMessage); err != nil {
		return err
	}
	f.record(Call{Op: OpDeleteMessage, ChatID: chatID, MessageID: messageID})
	return nil
}

// Fail configures the next call for op to return err (wrapped as BotError if needed).
func (f *FakeAdapter) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext == nil {
		f.FailNext = make(map[string]error)
	}
	f.FailNext[op] = err
}

// LastCall returns the most recent call for the given op.
func (f *FakeAdapter) LastCall(op string) *Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Op == op {
			c := f.Calls[i]
			return &c
		}
	}
	return nil
}

// CallsFor returns every recorded call for op, optionally limited to one chat.
func (f *FakeAdapter) CallsFor(op string, chatID int64) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Op != op {
			continue
		}
		if chatID != 0 && c.ChatID != chatID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Reset forgets recorded calls and pending failures.
func (f *FakeAdapter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
	f.FailNext = nil
}

func (f *FakeAdapter) botMessage(chatID int64, messageID int, text string) botport.BotMessage {
	return botport.BotMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Transport: "fake",
		Payload:   text,
		Meta:      map[string]string{"fake": "true"},
	}
}

func (f *FakeAdapter) nextMessageID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NextMessageID == 0 {
		f.NextMessageID = 1
	}
	id := f.NextMessageID
	f.NextMessageID++
	return id
}

func (f *FakeAdapter) record(call Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *FakeAdapter) maybeFail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err, ok := f.FailNext[op]
	if !ok {
		return nil
	}
	delete(f.FailNext, op)
	var be *botport.BotError
	if errors.As(err, &be) {
		return err
	}
	return botport.NewBotError(op, "fake_error", err)
}

func wrapContextError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return botport.NewBotError(op, "context_canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return botport.NewBotError(op, "context_deadline", err)
	default:
		return botport.NewBotError(op, "context_error", err)
	}
}

// MessageNotModified scripts the edit-without-change reply.
func MessageNotModified(op string) *botport.BotError {
	return botport.NewBotError(op, botport.CodeMessageNotModified, nil)
}

func RateLimited(op string, retry time.Duration) *botport.BotError {
	be := botport.NewBotError(op, botport.CodeRateLimited, fmt.Errorf("rate limited"))
	be.RetryAfter = retry
	return be
}

func Forbidden(op string) *botport.BotError {
	return botport.NewBotError(op, botport.CodeForbidden, fmt.Errorf("bot was blocked by the user"))
}
