package questions

import (
	"errors"
	"time"

	"questionnairebot/pkg/config"
	"questionnairebot/pkg/ports/botport"
	"questionnairebot/pkg/state"
)

// QuestionStrategy renders the prompt of one survey state and interprets the
// answers given in it.
type QuestionStrategy interface {
	Name() string
	Render(RenderContext) (PromptSpec, error)
	HandleAnswer(AnswerContext, AnswerInput) (AnswerResult, error)
}

// RenderContext captures what a strategy may look at while building a prompt.
type RenderContext struct {
	Survey  config.SurveyConfig
	Session state.Session
	Now     time.Time
}

// AnswerContext mirrors RenderContext for answer handling.
type AnswerContext struct {
	RenderContext
}

// PromptSpec defines the text and quick replies returned by strategies.
type PromptSpec struct {
	Text    string
	Choices botport.ChoiceSet
}

// AnswerInputSource differentiates between typed text and selected choices.
type AnswerInputSource string

const (
	InputSourceText      AnswerInputSource = "text"
	InputSourceSelection AnswerInputSource = "selection"
)

// AnswerInput wraps user responses in a transport-agnostic struct.
type AnswerInput struct {
	Source AnswerInputSource
	Text   string
	Token  string
}

// Branch values for AnswerResult.
const (
	BranchNone              = ""
	BranchCustomCitizenship = "custom_citizenship"
)

// AnswerResult instructs the controller how to proceed after a strategy
// processed an input.
//
// Advance stores Value under Key and moves to the next state. Branch moves to
// a side state without storing anything. Otherwise the state is kept: Feedback
// is sent and, with Repeat, the current prompt is shown again.
type AnswerResult struct {
	Advance  bool
	Key      string
	Value    string
	Branch   string
	Repeat   bool
	Feedback string
	Invalid  *ValidationError
}

func rejected(err error) (AnswerResult, bool) {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return AnswerResult{}, false
	}
	return AnswerResult{Repeat: true, Feedback: ve.UserMessage(), Invalid: ve}, true
}
