package questions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnairebot/pkg/config"
)

func testSurvey(t *testing.T) config.SurveyConfig {
	t.Helper()
	cfg, err := config.Parse([]byte("telegram: {token: x}\n"))
	require.NoError(t, err)
	return cfg.Survey
}

func answerCtx(t *testing.T) AnswerContext {
	return AnswerContext{RenderContext: RenderContext{
		Survey: testSurvey(t),
		Now:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}}
}

func TestNameStrategy(t *testing.T) {
	s := NewNameStrategy()
	ctx := answerCtx(t)

	res, err := s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "Ivan"})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.True(t, res.Repeat)
	require.NotNil(t, res.Invalid)
	assert.Equal(t, ReasonTooFewTokens, res.Invalid.Reason)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "Ivanov Ivan"})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, FieldFullName, res.Key)
	assert.Equal(t, "Ivanov Ivan", res.Value)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "cit:RU"})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.True(t, res.Repeat)
}

func TestBirthDateStrategyRender(t *testing.T) {
	prompt, err := NewBirthDateStrategy().Render(answerCtx(t).RenderContext)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"date:15.03.1990", "date:22.07.1985", "date:08.12.1995", "date:30.01.1980", TokenDateManual,
	}, prompt.Choices.Tokens())
	assert.Len(t, prompt.Choices, 3)
}

func TestBirthDateStrategyAnswers(t *testing.T) {
	s := NewBirthDateStrategy()
	ctx := answerCtx(t)

	res, err := s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "date:22.07.1985"})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, "22.07.1985", res.Value)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: TokenDateManual})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.False(t, res.Repeat)
	assert.NotEmpty(t, res.Feedback)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "date:01.01.2001"})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.True(t, res.Repeat)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "31.02.1990"})
	require.NoError(t, err)
	require.NotNil(t, res.Invalid)
	assert.Equal(t, ReasonInvalidDate, res.Invalid.Reason)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "15.03.1990"})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, FieldBirthDate, res.Key)
	assert.Equal(t, "15.03.1990", res.Value)
}

func TestCitizenshipStrategyButtons(t *testing.T) {
	s := NewCitizenshipStrategy()
	ctx := answerCtx(t)

	prompt, err := s.Render(ctx.RenderContext)
	require.NoError(t, err)
	tokens := prompt.Choices.Tokens()
	require.Len(t, tokens, 9)
	assert.Equal(t, "cit:RU", tokens[0])
	assert.Equal(t, TokenCitizenshipCustom, tokens[8])

	res, err := s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "cit:KZ"})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, "Казахстан", res.Value)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: TokenCitizenshipCustom})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.Equal(t, BranchCustomCitizenship, res.Branch)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "cit:XX"})
	require.NoError(t, err)
	assert.True(t, res.Repeat)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "A"})
	require.NoError(t, err)
	require.NotNil(t, res.Invalid)
	assert.Equal(t, ReasonTooShort, res.Invalid.Reason)

	res, err = s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "  Франция "})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, "Франция", res.Value)
}

func TestCitizenshipStrategyTextMode(t *testing.T) {
	s := NewCitizenshipStrategy()
	ctx := answerCtx(t)
	ctx.Survey.CitizenshipInput = config.CitizenshipInputText

	prompt, err := s.Render(ctx.RenderContext)
	require.NoError(t, err)
	assert.True(t, prompt.Choices.Empty())

	res, err := s.HandleAnswer(ctx, AnswerInput{Source: InputSourceSelection, Token: "cit:RU"})
	require.NoError(t, err)
	assert.False(t, res.Advance)
	assert.True(t, res.Repeat)
}

func TestCustomCitizenshipStrategy(t *testing.T) {
	s := NewCustomCitizenshipStrategy()
	ctx := answerCtx(t)

	prompt, err := s.Render(ctx.RenderContext)
	require.NoError(t, err)
	assert.True(t, prompt.Choices.Empty())

	res, err := s.HandleAnswer(ctx, AnswerInput{Source: InputSourceText, Text: "США"})
	require.NoError(t, err)
	assert.True(t, res.Advance)
	assert.Equal(t, FieldCitizenship, res.Key)
	assert.Equal(t, "США", res.Value)
}
