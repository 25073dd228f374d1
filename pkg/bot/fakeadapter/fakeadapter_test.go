package fakeadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnairebot/pkg/ports/botport"
)

func TestSendMessageRecordsCall(t *testing.T) {
	f := New()
	choices := botport.ChoiceSet{{{Text: "ok", Token: "ok"}}}
	msg, err := f.SendMessage(context.Background(), 1, "hello", choices)
	require.NoError(t, err)
	assert.NotZero(t, msg.MessageID)
	assert.Equal(t, int64(1), msg.ChatID)
	assert.Equal(t, "hello", msg.Payload)

	call := f.LastCall(OpSendMessage)
	require.NotNil(t, call)
	assert.Equal(t, "hello", call.Text)
	assert.Equal(t, []string{"ok"}, call.Tokens())
}

func TestMessageIDsIncrease(t *testing.T) {
	f := New()
	first, err := f.SendMessage(context.Background(), 1, "a", nil)
	require.NoError(t, err)
	second, err := f.SendMessage(context.Background(), 1, "b", nil)
	require.NoError(t, err)
	assert.Greater(t, second.MessageID, first.MessageID)
}

func TestEditMessageUsesProvidedID(t *testing.T) {
	f := New()
	msg, err := f.EditMessage(context.Background(), 2, 99, "edit", nil)
	require.NoError(t, err)
	assert.Equal(t, 99, msg.MessageID)
	call := f.LastCall(OpEditMessage)
	require.NotNil(t, call)
	assert.Equal(t, 99, call.MessageID)
}

func TestFailNextWrapsError(t *testing.T) {
	f := New()
	f.Fail(OpSendMessage, errors.New("boom"))
	_, err := f.SendMessage(context.Background(), 1, "x", nil)
	require.Error(t, err)
	assert.True(t, botport.IsCode(err, "fake_error"))

	_, err = f.SendMessage(context.Background(), 1, "x", nil)
	assert.NoError(t, err, "failure applies to one call only")
}

func TestFailNextPassesThroughBotError(t *testing.T) {
	f := New()
	f.Fail(OpEditMessage, MessageNotModified(OpEditMessage))
	_, err := f.EditMessage(context.Background(), 1, 2, "x", nil)
	assert.True(t, botport.IsCode(err, botport.CodeMessageNotModified))
}

func TestRateLimitedHelperSetsRetryAfter(t *testing.T) {
	f := New()
	f.Fail(OpSendMessage, RateLimited(OpSendMessage, 2*time.Second))
	_, err := f.SendMessage(context.Background(), 1, "x", nil)
	var be *botport.BotError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, botport.CodeRateLimited, be.Code)
	assert.Equal(t, 2*time.Second, be.RetryAfter)
}

func TestAnswerCallbackAndDeleteRecorded(t *testing.T) {
	f := New()
	require.NoError(t, f.AnswerCallback(context.Background(), "cbid", "note"))
	require.NoError(t, f.DeleteMessage(context.Background(), 5, 17))

	cb := f.LastCall(OpAnswerCallback)
	require.NotNil(t, cb)
	assert.Equal(t, "cbid", cb.Callback)
	assert.Equal(t, "note", cb.Text)

	del := f.CallsFor(OpDeleteMessage, 5)
	require.Len(t, del, 1)
	assert.Equal(t, 17, del[0].MessageID)
	assert.Empty(t, f.CallsFor(OpDeleteMessage, 6))
}

func TestCanceledContextIsReported(t *testing.T) {
	f := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.DeleteMessage(ctx, 1, 1)
	assert.True(t, botport.IsCode(err, "context_canceled"))
	assert.Empty(t, f.Calls)
}
