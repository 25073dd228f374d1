package questions

import (
	"fmt"
	"strings"

	"questionnairebot/pkg/config"
	"questionnairebot/pkg/ports/botport"
)

// Selection tokens of the citizenship prompt.
const (
	TokenCitizenshipPrefix = "cit:"
	TokenCitizenshipCustom = TokenCitizenshipPrefix + "custom"
)

type citizenshipStrategy struct{}

// NewCitizenshipStrategy asks for the citizenship, offering the configured
// countries as quick replies unless the survey runs in text input mode.
func NewCitizenshipStrategy() QuestionStrategy {
	return &citizenshipStrategy{}
}

func (b *citizenshipStrategy) Name() string {
	return "citizenship"
}

func (b *citizenshipStrategy) Render(ctx RenderContext) (PromptSpec, error) {
	if ctx.Survey.CitizenshipInput == config.CitizenshipInputText {
		return PromptSpec{Text: "🌍 Вопрос 3: Укажите ваше гражданство"}, nil
	}
	if len(ctx.Survey.CitizenshipOptions) == 0 {
		return PromptSpec{}, fmt.Errorf("citizenship prompt has no options configured")
	}

	var choices botport.ChoiceSet
	var row []botport.Choice
	for _, option := range ctx.Survey.CitizenshipOptions {
		row = append(row, botport.Choice{Text: option.Text, Token: TokenCitizenshipPrefix + option.Code})
		if len(row) == 2 {
			choices = append(choices, row)
			row = nil
		}
	}
	if len(row) > 0 {
		choices = append(choices, row)
	}
	choices = append(choices, []botport.Choice{{Text: "✏️ Другое", Token: TokenCitizenshipCustom}})

	return PromptSpec{
		Text:    "🌍 Вопрос 3: Укажите ваше гражданство\n\nВыберите из списка или введите вручную:",
		Choices: choices,
	}, nil
}

func (b *citizenshipStrategy) HandleAnswer(ctx AnswerContext, input AnswerInput) (AnswerResult, error) {
	text := input.Text
	if input.Source == InputSourceSelection {
		if ctx.Survey.CitizenshipInput == config.CitizenshipInputText {
			return AnswerResult{Feedback: "Пожалуйста, введите гражданство текстом.", Repeat: true}, nil
		}
		if input.Token == TokenCitizenshipCustom {
			return AnswerResult{Branch: BranchCustomCitizenship}, nil
		}
		option := b.findOption(ctx.Survey.CitizenshipOptions, strings.TrimPrefix(input.Token, TokenCitizenshipPrefix))
		if option == nil || !strings.HasPrefix(input.Token, TokenCitizenshipPrefix) {
			return AnswerResult{
				Feedback: "Выбранный вариант больше недоступен. Попробуйте снова.",
				Repeat:   true,
			}, nil
		}
		text = option.Value
	}

	value, err := ValidateCitizenship(text)
	if err != nil {
		if res, ok := rejected(err); ok {
			return res, nil
		}
		return AnswerResult{}, err
	}
	return AnswerResult{
		Advance:  true,
		Key:      FieldCitizenship,
		Value:    value,
		Feedback: "✅ Гражданство сохранено: " + value,
	}, nil
}

func (b *citizenshipStrategy) findOption(options []config.CitizenshipOption, code string) *config.CitizenshipOption {
	for _, opt := range options {
		if opt.Code == code {
			return &opt
		}
	}
	return nil
}
