package fsm

import (
	"bytes"
	"strings"
	"text/template"

	"questionnairebot/pkg/state"
)

const (
	stepDone    = "✅"
	stepCurrent = "🔄"
	stepPending = "⏳"
)

type progressStep struct {
	Number int
	Icon   string
	Title  string
	Value  string
	Note   string
}

type progressPayload struct {
	Steps []progressStep
}

var progressTpl = template.Must(template.New("progress").Parse(`📊 Прогресс опроса:
{{range .Steps}}
{{.Icon}} Шаг {{.Number}}: {{.Title}}{{if .Value}} - {{.Value}}{{end}}{{if .Note}} ({{.Note}}){{end}}{{end}}`))

var progressOrder = []struct {
	title string
	key   string
	state string
}{
	{title: "ФИО", key: state.AnswerFullName, state: StateAwaitingName},
	{title: "Дата рождения", key: state.AnswerBirthDate, state: StateAwaitingBirthDate},
	{title: "Гражданство", key: state.AnswerCitizenship, state: StateAwaitingCitizenship},
}

func buildProgressPayload(sess state.Session) progressPayload {
	current := sess.State
	if current == StateAwaitingCustomCitizenship {
		current = StateAwaitingCitizenship
	}

	steps := make([]progressStep, 0, len(progressOrder))
	reached := false
	for i, step := range progressOrder {
		ps := progressStep{Number: i + 1, Title: step.title}
		switch {
		case step.state == current:
			reached = true
			ps.Icon, ps.Note = stepCurrent, "не завершен"
		case reached:
			ps.Icon, ps.Note = stepPending, "ожидает"
		default:
			ps.Icon, ps.Value = stepDone, sess.Answers[step.key]
			if ps.Value == "" {
				ps.Value = "Не указано"
			}
		}
		steps = append(steps, ps)
	}
	return progressPayload{Steps: steps}
}

func renderProgress(sess state.Session) (string, error) {
	var buf bytes.Buffer
	if err := progressTpl.Execute(&buf, buildProgressPayload(sess)); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
