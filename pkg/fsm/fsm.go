package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"questionnairebot/pkg/config"
	"questionnairebot/pkg/fsm/questions"
	"questionnairebot/pkg/generator"
	"questionnairebot/pkg/logx"
	"questionnairebot/pkg/metrics"
	"questionnairebot/pkg/ports/botport"
	"questionnairebot/pkg/state"
	"questionnairebot/pkg/storage"
)

// Generator produces the demo filler merged into a completed record.
type Generator interface {
	Generate(fullName string) generator.Filler
}

// Options wires a Controller. Store, Bot, Sink and Generator are required.
type Options struct {
	Store     state.Store
	Bot       botport.BotPort
	Sink      storage.RecordSink
	Generator Generator
	Registry  *questions.Registry
	Survey    config.SurveyConfig
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
	Now       func() time.Time
	// History serves /history. Without it the command reports it is unavailable.
	History storage.HistoryReader
	// AnswersOnly is set when the sink drops the filler columns.
	AnswersOnly bool
}

// Controller runs the survey conversation for every user.
type Controller struct {
	store     state.Store
	bot       botport.BotPort
	sink      storage.RecordSink
	generator Generator
	registry  *questions.Registry
	survey    config.SurveyConfig
	metrics   *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time

	history     storage.HistoryReader
	answersOnly bool
}

// turn carries the state of one inbound event through the handlers and the
// FSM callbacks.
type turn struct {
	ev      Event
	session *state.Session
	log     *slog.Logger
	notice  string

	record   storage.SurveyRecord
	recordID int64
}

func NewController(opts Options) (*Controller, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("fsm: store is required")
	case opts.Bot == nil:
		return nil, errors.New("fsm: bot port is required")
	case opts.Sink == nil:
		return nil, errors.New("fsm: record sink is required")
	case opts.Generator == nil:
		return nil, errors.New("fsm: generator is required")
	}
	if opts.Registry == nil {
		opts.Registry = NewSurveyRegistry()
	}
	for _, st := range []string{StateAwaitingName, StateAwaitingBirthDate, StateAwaitingCitizenship, StateAwaitingCustomCitizenship} {
		if opts.Registry.Get(st) == nil {
			return nil, fmt.Errorf("fsm: no question strategy registered for state %q", st)
		}
	}
	if opts.Survey.SaveTimeout <= 0 {
		opts.Survey.SaveTimeout = config.DefaultSaveTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:     opts.Store,
		bot:       opts.Bot,
		sink:      opts.Sink,
		generator: opts.Generator,
		registry:  opts.Registry,
		survey:    opts.Survey,
		metrics:   opts.Metrics,
		logger:    logx.Component(opts.Logger, "fsm"),
		now:       opts.Now,

		history:     opts.History,
		answersOnly: opts.AnswersOnly,
	}, nil
}

// HandleEvent processes one inbound event. Events of the same user are
// serialized; a panic in a handler is recovered and reported to the user.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) {
	if ev.UserID == 0 || ev.ChatID == 0 {
		c.logger.Warn("event.ignored", slog.String("kind", string(ev.Kind)), slog.Int64("user_id", ev.UserID))
		return
	}

	rid := logx.RIDFrom(ctx)
	if rid == "" {
		rid = logx.NewRID()
		ctx = logx.WithRID(ctx, rid)
	}
	t := &turn{
		ev: ev,
		log: c.logger.With(
			slog.Int64("user_id", ev.UserID),
			slog.String("rid", rid),
		),
	}
	c.metrics.Event(string(ev.Kind))

	unlock := c.store.Lock(ev.UserID)
	defer unlock()
	defer func() {
		if r := recover(); r != nil {
			c.metrics.Panic()
			t.log.Error("event.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			c.send(ctx, t, msgInternalError, mainMenuChoices())
			c.answerCallback(ctx, t)
		}
	}()

	if sess, ok := c.store.Get(ev.UserID); ok {
		t.session = &sess
	}
	t.log.Debug("event.received",
		slog.String("kind", string(ev.Kind)),
		slog.String("state", t.state()),
	)

	switch ev.Kind {
	case KindCommand:
		c.handleCommand(ctx, t)
	case KindSelection:
		c.handleSelection(ctx, t)
	case KindText:
		c.handleText(ctx, t)
	default:
		t.log.Warn("event.unknown_kind", slog.String("kind", string(ev.Kind)))
	}

	if t.session != nil {
		c.store.Set(ev.UserID, *t.session)
	}
	c.answerCallback(ctx, t)
}

func (t *turn) state() string {
	if t.session == nil {
		return ""
	}
	return t.session.State
}

func (c *Controller) handleCommand(ctx context.Context, t *turn) {
	switch strings.ToLower(t.ev.Command) {
	case CommandStart:
		c.startSurvey(ctx, t, welcomeText)
	case CommandHelp:
		c.reply(ctx, t, helpText, mainMenuChoices())
	case CommandCancel:
		c.cancelSurvey(ctx, t)
	case CommandProgress:
		c.showProgress(ctx, t)
	case CommandHistory:
		c.showHistory(ctx, t)
	default:
		t.log.Info("command.unknown", slog.String("command", t.ev.Command))
		c.reply(ctx, t, msgUnknownCommand, nil)
	}
}

func (c *Controller) handleSelection(ctx context.Context, t *turn) {
	token := t.ev.Token
	if isMenuToken(token) {
		switch token {
		case TokenStartSurvey:
			c.startSurvey(ctx, t, msgSurveyStarted)
		case TokenNewSurvey:
			c.startSurvey(ctx, t, msgSurveyNew)
		case TokenRestartSurvey:
			c.startSurvey(ctx, t, msgSurveyRestarted)
		case TokenCancelSurvey:
			c.cancelSurvey(ctx, t)
		case TokenHelpInfo:
			c.reply(ctx, t, helpText, mainMenuChoices())
		case TokenShowProgress:
			if t.session == nil {
				t.notice = noticeNoSurvey
				return
			}
			c.showProgress(ctx, t)
		}
		return
	}

	if t.session == nil {
		t.log.Info("selection.no_session", slog.String("token", token))
		t.notice = noticeNoSurvey
		return
	}

	strategy := c.registry.Get(t.session.State)
	if strategy == nil {
		c.unknownState(ctx, t)
		return
	}
	prompt, err := c.prompt(t)
	if err != nil {
		t.log.Error("prompt.render_failed", slog.String("state", t.session.State), slog.String("err", err.Error()))
		c.reply(ctx, t, msgInternalError, withSurveyControls(nil))
		return
	}
	if !slices.Contains(prompt.Choices.Tokens(), token) {
		t.log.Info("selection.stale", slog.String("token", token), slog.String("state", t.session.State))
		t.notice = noticeStale
		return
	}

	c.processAnswer(ctx, t, strategy, questions.AnswerInput{
		Source: questions.InputSourceSelection,
		Token:  token,
	})
}

func (c *Controller) handleText(ctx context.Context, t *turn) {
	if t.session == nil {
		if c.survey.ExplicitStart() {
			c.reply(ctx, t, msgUseStart, mainMenuChoices())
			return
		}
		sess := state.NewSession(t.ev.UserID, t.ev.UserName, StateAwaitingName, c.now())
		t.session = &sess
		c.metrics.Survey(metrics.OutcomeStarted)
		t.log.Info("survey.started", slog.Bool("implicit", true))
	}

	c.deleteUserTextMessage(ctx, t)

	strategy := c.registry.Get(t.session.State)
	if strategy == nil {
		c.unknownState(ctx, t)
		return
	}
	c.processAnswer(ctx, t, strategy, questions.AnswerInput{
		Source: questions.InputSourceText,
		Text:   t.ev.Text,
	})
}

// processAnswer hands input to the strategy of the current state and applies
// its verdict.
func (c *Controller) processAnswer(ctx context.Context, t *turn, strategy questions.QuestionStrategy, input questions.AnswerInput) {
	result, err := strategy.HandleAnswer(questions.AnswerContext{RenderContext: c.renderContext(t)}, input)
	if err != nil {
		t.log.Error("answer.failed", slog.String("strategy", strategy.Name()), slog.String("err", err.Error()))
		c.reply(ctx, t, msgInternalError, withSurveyControls(nil))
		return
	}

	if result.Invalid != nil {
		c.metrics.ValidationFailed(result.Invalid.Field, result.Invalid.Reason)
		t.log.Info("answer.rejected",
			slog.String("field", result.Invalid.Field),
			slog.String("reason", result.Invalid.Reason),
		)
	}

	switch {
	case result.Branch == questions.BranchCustomCitizenship:
		if err := c.fire(ctx, t, EventChooseCustomCitizenship); err != nil {
			c.transitionFailed(ctx, t, EventChooseCustomCitizenship, err)
			return
		}
		c.replyPrompt(ctx, t, result.Feedback)

	case result.Advance:
		t.session.Answers[result.Key] = result.Value
		event, ok := advanceEvents[t.session.State]
		if !ok {
			c.unknownState(ctx, t)
			return
		}
		if event == EventComplete {
			c.complete(ctx, t)
			return
		}
		if err := c.fire(ctx, t, event); err != nil {
			c.transitionFailed(ctx, t, event, err)
			return
		}
		c.replyPrompt(ctx, t, result.Feedback)

	case result.Repeat:
		c.replyPrompt(ctx, t, result.Feedback)

	default:
		c.reply(ctx, t, result.Feedback, withSurveyControls(nil))
	}
}

func (c *Controller) renderContext(t *turn) questions.RenderContext {
	return questions.RenderContext{
		Survey:  c.survey,
		Session: t.session.Clone(),
		Now:     c.now(),
	}
}

// prompt renders the question of the session's current state.
func (c *Controller) prompt(t *turn) (questions.PromptSpec, error) {
	strategy := c.registry.Get(t.session.State)
	if strategy == nil {
		return questions.PromptSpec{}, fmt.Errorf("no strategy for state %q", t.session.State)
	}
	return strategy.Render(c.renderContext(t))
}

// replyPrompt sends header followed by the current question.
func (c *Controller) replyPrompt(ctx context.Context, t *turn, header string) {
	prompt, err := c.prompt(t)
	if err != nil {
		t.log.Error("prompt.render_failed", slog.String("state", t.session.State), slog.String("err", err.Error()))
		c.reply(ctx, t, joinText(header, msgInternalError), withSurveyControls(nil))
		return
	}
	c.reply(ctx, t, joinText(header, prompt.Text), withSurveyControls(prompt.Choices))
}

func (c *Controller) startSurvey(ctx context.Context, t *turn, header string) {
	if t.session != nil {
		t.log.Info("survey.reset", slog.String("from", t.session.State))
	}
	sess := state.NewSession(t.ev.UserID, t.ev.UserName, StateAwaitingName, c.now())
	if t.session != nil {
		sess.LastMessageID = t.session.LastMessageID
	}
	t.session = &sess
	c.metrics.Survey(metrics.OutcomeStarted)
	c.replyPrompt(ctx, t, header)
}

func (c *Controller) cancelSurvey(ctx context.Context, t *turn) {
	if t.session == nil {
		c.reply(ctx, t, msgNoActiveSurvey, mainMenuChoices())
		return
	}
	t.log.Info("survey.cancelled", slog.String("state", t.session.State))
	c.store.Remove(t.ev.UserID)
	t.session = nil
	c.metrics.Survey(metrics.OutcomeCancelled)
	c.reply(ctx, t, msgCancelled, mainMenuChoices())
}

func (c *Controller) showProgress(ctx context.Context, t *turn) {
	if t.session == nil {
		c.reply(ctx, t, msgNoActiveSurvey, mainMenuChoices())
		return
	}
	text, err := renderProgress(*t.session)
	if err != nil {
		t.log.Error("progress.render_failed", slog.String("err", err.Error()))
		c.reply(ctx, t, msgInternalError, withSurveyControls(nil))
		return
	}
	c.reply(ctx, t, text, withSurveyControls(nil))
}

func (c *Controller) unknownState(ctx context.Context, t *turn) {
	t.log.Error("session.unknown_state", slog.String("state", t.state()))
	c.store.Remove(t.ev.UserID)
	t.session = nil
	c.reply(ctx, t, msgUnknownState, mainMenuChoices())
}

func (c *Controller) transitionFailed(ctx context.Context, t *turn, event string, err error) {
	t.log.Error("survey.transition_failed",
		slog.String("event", event),
		slog.String("state", t.state()),
		slog.String("err", err.Error()),
	)
	c.reply(ctx, t, msgInternalError, withSurveyControls(nil))
}

// reply edits the keyboard message the user pressed a button on when inline
// editing is enabled, and sends a new message otherwise.
func (c *Controller) reply(ctx context.Context, t *turn, text string, choices botport.ChoiceSet) {
	if c.survey.InlineEdit && t.ev.Kind == KindSelection && t.ev.MessageID != 0 {
		msg, err := c.bot.EditMessage(ctx, t.ev.ChatID, t.ev.MessageID, text, choices)
		switch {
		case err == nil:
			c.remember(t, msg.MessageID)
			return
		case botport.IsCode(err, botport.CodeMessageNotModified):
			return
		default:
			c.transportFailed(t, "edit_message", err)
		}
	}
	c.send(ctx, t, text, choices)
}

func (c *Controller) send(ctx context.Context, t *turn, text string, choices botport.ChoiceSet) {
	msg, err := c.bot.SendMessage(ctx, t.ev.ChatID, text, choices)
	if err != nil {
		c.transportFailed(t, "send_message", err)
		return
	}
	c.remember(t, msg.MessageID)
}

func (c *Controller) remember(t *turn, messageID int) {
	if t.session != nil && messageID != 0 {
		t.session.LastMessageID = messageID
	}
}

func (c *Controller) answerCallback(ctx context.Context, t *turn) {
	if t.ev.Kind != KindSelection || t.ev.CallbackID == "" {
		return
	}
	if err := c.bot.AnswerCallback(ctx, t.ev.CallbackID, t.notice); err != nil {
		c.transportFailed(t, "answer_callback", err)
	}
	t.ev.CallbackID = ""
}

func (c *Controller) transportFailed(t *turn, op string, err error) {
	code := botport.CodeUnknown
	var be *botport.BotError
	if errors.As(err, &be) && be.Code != "" {
		code = be.Code
	}
	c.metrics.TransportError(op, code)
	t.log.Warn("transport.failed",
		slog.String("op", op),
		slog.String("code", code),
		slog.String("err", err.Error()),
	)
}
