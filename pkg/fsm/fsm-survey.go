package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/looplab/fsm"

	"questionnairebot/pkg/metrics"
	"questionnairebot/pkg/report"
	"questionnairebot/pkg/state"
	"questionnairebot/pkg/storage"
)

// advanceEvents maps a state to the event fired once its answer is accepted.
var advanceEvents = map[string]string{
	StateAwaitingName:              EventSubmitName,
	StateAwaitingBirthDate:         EventSubmitBirthDate,
	StateAwaitingCitizenship:       EventComplete,
	StateAwaitingCustomCitizenship: EventComplete,
}

// NewSurveyFSM builds the survey transition table positioned at initialState.
func NewSurveyFSM(initialState string, callbacks fsm.Callbacks) *fsm.FSM {
	events := fsm.Events{
		{Name: EventSubmitName, Src: []string{StateAwaitingName}, Dst: StateAwaitingBirthDate},
		{Name: EventSubmitBirthDate, Src: []string{StateAwaitingBirthDate}, Dst: StateAwaitingCitizenship},
		{Name: EventChooseCustomCitizenship, Src: []string{StateAwaitingCitizenship}, Dst: StateAwaitingCustomCitizenship},
		{Name: EventComplete, Src: []string{StateAwaitingCitizenship, StateAwaitingCustomCitizenship}, Dst: StateCompleted},
	}
	if callbacks == nil {
		callbacks = fsm.Callbacks{}
	}
	return fsm.NewFSM(initialState, events, callbacks)
}

func (c *Controller) surveyFSM(initialState string) *fsm.FSM {
	return NewSurveyFSM(initialState, fsm.Callbacks{
		"before_" + EventComplete: c.beforeComplete,
		"enter_state":             c.enterState,
	})
}

// fire runs event on a machine positioned at the session state and stores the
// resulting state back on the session.
func (c *Controller) fire(ctx context.Context, t *turn, event string) error {
	machine := c.surveyFSM(t.session.State)
	err := machine.Event(ctx, event, t)
	if err != nil && !isNoTransitionError(err) {
		return err
	}
	t.session.State = machine.Current()
	return nil
}

func turnFrom(e *fsm.Event) (*turn, bool) {
	if len(e.Args) < 1 {
		return nil, false
	}
	t, ok := e.Args[0].(*turn)
	return t, ok && t != nil && t.session != nil
}

func (c *Controller) enterState(_ context.Context, e *fsm.Event) {
	t, ok := turnFrom(e)
	if !ok {
		return
	}
	t.log.Debug("survey.transition",
		slog.String("event", e.Event),
		slog.String("src", e.Src),
		slog.String("dst", e.Dst),
	)
}

var errIncompleteAnswers = errors.New("survey answers are incomplete")

// beforeComplete merges generated filler into the record and saves it. Any
// failure cancels the transition so the session keeps its current state.
func (c *Controller) beforeComplete(ctx context.Context, e *fsm.Event) {
	t, ok := turnFrom(e)
	if !ok {
		e.Cancel(fmt.Errorf("complete fired without a turn"))
		return
	}

	answers := t.session.Answers
	fullName := answers[state.AnswerFullName]
	birthDate := answers[state.AnswerBirthDate]
	citizenship := answers[state.AnswerCitizenship]
	if fullName == "" || birthDate == "" || citizenship == "" {
		e.Cancel(errIncompleteAnswers)
		return
	}

	rec, err := storage.NewSurveyRecord(t.session.UserID, fullName, birthDate, citizenship, c.generator.Generate(fullName))
	if err != nil {
		e.Cancel(err)
		return
	}
	rec.CreatedAt = c.now().UTC()

	saveCtx, cancel := context.WithTimeout(ctx, c.survey.SaveTimeout)
	defer cancel()

	start := c.now()
	id, err := c.sink.Save(saveCtx, rec)
	c.metrics.Save(err, c.now().Sub(start))
	if err != nil {
		e.Cancel(err)
		return
	}
	t.record = rec
	t.recordID = id
}

// complete fires the complete event. On success the session is removed and the
// report is sent; otherwise the citizenship answer is dropped and the user is
// asked to resubmit it.
func (c *Controller) complete(ctx context.Context, t *turn) {
	err := c.fire(ctx, t, EventComplete)
	if err == nil && t.session.State == StateCompleted {
		c.store.Remove(t.session.UserID)
		t.session = nil
		c.metrics.Survey(metrics.OutcomeCompleted)
		t.log.Info("survey.completed", slog.Int64("record_id", t.recordID))
		c.reply(ctx, t, report.Render(t.record.Fields(), report.Options{
			Full:        c.survey.ShowFullReport(),
			AnswersOnly: c.answersOnly,
		}), completionChoices())
		return
	}

	cause, canceled := canceledCause(err)
	if !canceled {
		cause = err
	}
	delete(t.session.Answers, state.AnswerCitizenship)

	if errors.Is(cause, storage.ErrSink) || errors.Is(cause, context.DeadlineExceeded) {
		t.log.Warn("survey.save_failed", slog.String("err", fmt.Sprint(cause)))
		text := msgSaveFailed
		if prompt, perr := c.prompt(t); perr == nil {
			text = joinText(msgSaveFailed, prompt.Text)
			c.reply(ctx, t, text, withSurveyControls(prompt.Choices))
			return
		}
		c.reply(ctx, t, text, withSurveyControls(nil))
		return
	}

	t.log.Error("survey.complete_failed", slog.String("err", fmt.Sprint(cause)))
	c.reply(ctx, t, msgInternalError, withSurveyControls(nil))
}
