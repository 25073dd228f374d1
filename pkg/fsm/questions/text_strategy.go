package questions

// textStrategy accepts one typed answer and checks it with validate.
type textStrategy struct {
	name     string
	key      string
	prompt   string
	saved    string
	validate func(string) (string, error)
}

// NewNameStrategy asks for the full name.
func NewNameStrategy() QuestionStrategy {
	return &textStrategy{
		name:     "full_name",
		key:      FieldFullName,
		prompt:   "📝 Вопрос 1: Как вас зовут?\n\nВведите ваше полное ФИО (например: Иванов Иван Иванович)",
		saved:    "✅ ФИО сохранено: ",
		validate: ValidateFullName,
	}
}

// NewCustomCitizenshipStrategy asks for a citizenship that is not on the list.
func NewCustomCitizenshipStrategy() QuestionStrategy {
	return &textStrategy{
		name:     "custom_citizenship",
		key:      FieldCitizenship,
		prompt:   "✏️ Введите ваше гражданство вручную:\n\nНапример: Германия, Франция, США, Китай и т.д.",
		saved:    "✅ Гражданство сохранено: ",
		validate: ValidateCitizenship,
	}
}

func (t *textStrategy) Name() string {
	return t.name
}

func (t *textStrategy) Render(RenderContext) (PromptSpec, error) {
	return PromptSpec{Text: t.prompt}, nil
}

func (t *textStrategy) HandleAnswer(_ AnswerContext, input AnswerInput) (AnswerResult, error) {
	if input.Source != InputSourceText {
		return AnswerResult{
			Feedback: "Пожалуйста, отправьте текстовый ответ.",
			Repeat:   true,
		}, nil
	}

	value, err := t.validate(input.Text)
	if err != nil {
		if res, ok := rejected(err); ok {
			return res, nil
		}
		return AnswerResult{}, err
	}
	return AnswerResult{Advance: true, Key: t.key, Value: value, Feedback: t.saved + value}, nil
}
