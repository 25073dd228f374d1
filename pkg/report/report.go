// Package report renders the completion summary shown after a survey is saved.
package report

import (
	"strings"
)

// Line binds a record field key to its display label.
type Line struct {
	Key   string
	Label string
}

// UserLines are the answers given by the user, in display order.
var UserLines = []Line{
	{Key: "full_name", Label: "👤 ФИО"},
	{Key: "birth_date", Label: "📅 Дата рождения"},
	{Key: "citizenship", Label: "🌍 Гражданство"},
}

// FillerLines are the generated fields, in display order.
var FillerLines = []Line{
	{Key: "phone_number", Label: "📱 Телефон"},
	{Key: "email", Label: "📧 Email"},
	{Key: "address", Label: "🏠 Адрес"},
	{Key: "passport", Label: "📄 Паспорт"},
	{Key: "passport_issued_by", Label: "🏛 Кем выдан"},
	{Key: "passport_issue_date", Label: "🗓 Дата выдачи"},
	{Key: "inn", Label: "🔢 ИНН"},
	{Key: "snils", Label: "🧾 СНИЛС"},
	{Key: "education", Label: "🎓 Образование"},
	{Key: "occupation", Label: "💼 Профессия"},
	{Key: "income_level", Label: "💰 Уровень дохода"},
	{Key: "marital_status", Label: "💍 Семейное положение"},
	{Key: "children_count", Label: "👶 Дети"},
}

const (
	header       = "🎉 Опрос завершен успешно!"
	userTitle    = "📋 Введенные вами данные:"
	fillerTitle  = "🔧 Автоматически заполненные данные (демо):"
	savedAll     = "✅ Все данные сохранены в базе данных!"
	savedAnswers = "✅ Ваши ответы сохранены в базе данных!"
	nextSurvey   = "Используйте /start для нового опроса."
)

// Options controls what the report shows.
type Options struct {
	// Full adds the filler block.
	Full bool
	// AnswersOnly reports that only the user's answers were persisted.
	AnswersOnly bool
}

// Render builds the report text from flattened record fields. A line is
// written for every field present in values.
func Render(values map[string]string, opts Options) string {
	values = withPassport(values)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(userTitle)
	b.WriteString("\n")
	writeLines(&b, UserLines, values)

	if opts.Full {
		var filler strings.Builder
		writeLines(&filler, FillerLines, values)
		if filler.Len() > 0 {
			b.WriteString("\n")
			b.WriteString(fillerTitle)
			b.WriteString("\n")
			b.WriteString(filler.String())
		}
	}

	b.WriteString("\n")
	b.WriteString(footer(opts.AnswersOnly))
	return b.String()
}

func footer(answersOnly bool) string {
	if answersOnly {
		return savedAnswers + "\n" + nextSurvey
	}
	return savedAll + "\n" + nextSurvey
}

func writeLines(b *strings.Builder, lines []Line, values map[string]string) {
	for _, line := range lines {
		v, ok := values[line.Key]
		if !ok || v == "" {
			continue
		}
		b.WriteString(line.Label)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
}

// withPassport joins series and number into the single passport line.
func withPassport(values map[string]string) map[string]string {
	series, number := values["passport_series"], values["passport_number"]
	if series == "" && number == "" {
		return values
	}
	out := make(map[string]string, len(values)+1)
	for k, v := range values {
		out[k] = v
	}
	out["passport"] = strings.TrimSpace(series + " " + number)
	return out
}
