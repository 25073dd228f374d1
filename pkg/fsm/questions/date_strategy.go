package questions

import (
	"strings"

	"questionnairebot/pkg/ports/botport"
)

// Selection tokens of the birth date prompt.
const (
	TokenDatePrefix = "date:"
	TokenDateManual = TokenDatePrefix + "manual"
)

const datePrompt = "📅 Вопрос 2: Какая дата рождения?\nВведите в формате ДД.ММ.ГГГГ (например: 15.03.1990)"

const dateManualPrompt = "✏️ Введите дату рождения вручную:\n\nФормат: ДД.ММ.ГГГГ\nНапример: 15.03.1990"

type dateStrategy struct{}

// NewBirthDateStrategy asks for the birth date and offers example dates as
// quick replies.
func NewBirthDateStrategy() QuestionStrategy {
	return &dateStrategy{}
}

func (d *dateStrategy) Name() string {
	return "birth_date"
}

func (d *dateStrategy) Render(ctx RenderContext) (PromptSpec, error) {
	var choices botport.ChoiceSet
	var row []botport.Choice
	for _, example := range ctx.Survey.DateExamples {
		row = append(row, botport.Choice{Text: "📅 " + example, Token: TokenDatePrefix + example})
		if len(row) == 2 {
			choices = append(choices, row)
			row = nil
		}
	}
	if len(row) > 0 {
		choices = append(choices, row)
	}
	choices = append(choices, []botport.Choice{{Text: "✏️ Ввести вручную", Token: TokenDateManual}})

	return PromptSpec{Text: datePrompt, Choices: choices}, nil
}

func (d *dateStrategy) HandleAnswer(ctx AnswerContext, input AnswerInput) (AnswerResult, error) {
	text := input.Text
	if input.Source == InputSourceSelection {
		switch {
		case input.Token == TokenDateManual:
			return AnswerResult{Feedback: dateManualPrompt}, nil
		case strings.HasPrefix(input.Token, TokenDatePrefix) && d.offered(ctx, strings.TrimPrefix(input.Token, TokenDatePrefix)):
			text = strings.TrimPrefix(input.Token, TokenDatePrefix)
		default:
			return AnswerResult{
				Feedback: "Выбранный вариант больше недоступен. Попробуйте снова.",
				Repeat:   true,
			}, nil
		}
	}

	value, _, err := ParseBirthDate(text, ctx.Now)
	if err != nil {
		if res, ok := rejected(err); ok {
			return res, nil
		}
		return AnswerResult{}, err
	}
	return AnswerResult{
		Advance:  true,
		Key:      FieldBirthDate,
		Value:    value,
		Feedback: "✅ Дата рождения сохранена: " + value,
	}, nil
}

func (d *dateStrategy) offered(ctx AnswerContext, value string) bool {
	for _, example := range ctx.Survey.DateExamples {
		if example == value {
			return true
		}
	}
	return false
}
