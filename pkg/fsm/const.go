package fsm

const (
	StateAwaitingName              = "awaiting_name"
	StateAwaitingBirthDate         = "awaiting_birth_date"
	StateAwaitingCitizenship       = "awaiting_citizenship"
	StateAwaitingCustomCitizenship = "awaiting_custom_citizenship"
	StateCompleted                 = "completed"
)

const (
	EventSubmitName              = "submit_name"
	EventSubmitBirthDate         = "submit_birth_date"
	EventChooseCustomCitizenship = "choose_custom_citizenship"
	EventComplete                = "complete"
)

const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandCancel   = "cancel"
	CommandProgress = "progress"
	CommandHistory  = "history"
)

const (
	TokenStartSurvey   = "start_survey"
	TokenNewSurvey     = "new_survey"
	TokenRestartSurvey = "restart_survey"
	TokenCancelSurvey  = "cancel_survey"
	TokenHelpInfo      = "help_info"
	TokenShowProgress  = "show_progress"
)

const (
	ButtonStartSurvey   = "📝 Начать опрос"
	ButtonHelp          = "📚 Справка"
	ButtonCancelSurvey  = "❌ Отменить опрос"
	ButtonNewSurvey     = "🔄 Новый опрос"
	ButtonShowProgress  = "📊 Прогресс"
	ButtonRestartSurvey = "🔄 Начать заново"
)
