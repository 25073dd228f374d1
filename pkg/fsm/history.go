package fsm

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"questionnairebot/pkg/storage"
)

// historyLimit caps how many of the latest records /history lists.
const historyLimit = 10

const historyTimeLayout = "02.01.2006 15:04"

type historyEntry struct {
	Number      int
	SavedAt     string
	FullName    string
	BirthDate   string
	Citizenship string
}

type historyPayload struct {
	Total   int
	Entries []historyEntry
}

var historyTpl = template.Must(template.New("history").Parse(`📜 Ваши анкеты: {{.Total}}
{{range .Entries}}
{{.Number}}. {{.SavedAt}} · {{.FullName}}, {{.BirthDate}}, {{.Citizenship}}{{end}}`))

func buildHistoryPayload(records []storage.SurveyRecord) historyPayload {
	payload := historyPayload{Total: len(records)}
	first := 0
	if len(records) > historyLimit {
		first = len(records) - historyLimit
	}
	for i, rec := range records[first:] {
		payload.Entries = append(payload.Entries, historyEntry{
			Number:      first + i + 1,
			SavedAt:     rec.CreatedAt.Format(historyTimeLayout),
			FullName:    rec.FullName,
			BirthDate:   rec.BirthDate.Format(storage.BirthDateLayout),
			Citizenship: rec.Citizenship,
		})
	}
	return payload
}

func renderHistory(records []storage.SurveyRecord) (string, error) {
	var buf bytes.Buffer
	if err := historyTpl.Execute(&buf, buildHistoryPayload(records)); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// showHistory lists the user's saved surveys. An active survey keeps its
// controls on the reply.
func (c *Controller) showHistory(ctx context.Context, t *turn) {
	choices := mainMenuChoices()
	if t.session != nil {
		choices = withSurveyControls(nil)
	}
	if c.history == nil {
		c.reply(ctx, t, msgHistoryOff, choices)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, c.survey.SaveTimeout)
	records, err := c.history.ByUser(readCtx, t.ev.UserID)
	cancel()
	if err != nil {
		t.log.Error("history.read_failed", slog.String("err", err.Error()))
		c.reply(ctx, t, msgInternalError, choices)
		return
	}
	if len(records) == 0 {
		c.reply(ctx, t, msgNoHistory, choices)
		return
	}

	text, err := renderHistory(records)
	if err != nil {
		t.log.Error("history.render_failed", slog.String("err", err.Error()))
		c.reply(ctx, t, msgInternalError, choices)
		return
	}
	t.log.Info("history.shown", slog.Int("records", len(records)))
	c.reply(ctx, t, text, choices)
}
