package fsm

import (
	"questionnairebot/pkg/ports/botport"
)

const welcomeText = "👋 Добро пожаловать в Бот Опроса Персональных Данных!\n\n" +
	"📋 Что вас ждет:\n" +
	"• 📝 3 простых вопроса\n" +
	"• 🔧 Автоматическое заполнение остальных данных\n" +
	"• 📊 Отчет по завершении"

const helpText = "📚 Справка по боту\n\n" +
	"Этот бот предназначен для сбора персональных данных через форму опроса.\n\n" +
	"Команды:\n" +
	"• /start - Начать опрос персональных данных\n" +
	"• /help - Эта справка\n" +
	"• /progress - Показать прогресс опроса\n" +
	"• /history - Ваши сохраненные анкеты\n" +
	"• /cancel - Отменить текущий опрос\n\n" +
	"Процесс опроса:\n" +
	"1. Введите ФИО\n" +
	"2. Введите дату рождения (ДД.ММ.ГГГГ)\n" +
	"3. Укажите гражданство\n" +
	"4. Остальные данные заполнятся автоматически"

const (
	msgSurveyStarted   = "🎯 Отлично! Начинаем опрос!"
	msgSurveyNew       = "🔄 Новый опрос начат!"
	msgSurveyRestarted = "🔄 Опрос перезапущен!"
	msgCancelled       = "❌ Опрос отменен. Используйте /start для начала нового опроса."
	msgNoActiveSurvey  = "❌ У вас нет активного опроса."
	msgUseStart        = "💬 Используйте /start для начала опроса."
	msgUnknownCommand  = "Неизвестная команда."
	msgUnknownState    = "❌ Неизвестное состояние. Используйте /start для начала нового опроса."
	msgInternalError   = "Произошла внутренняя ошибка. Пожалуйста, попробуйте позже или используйте /start."
	msgSaveFailed      = "❌ Ошибка при сохранении данных. Попробуйте еще раз или используйте /cancel"
	msgNoHistory       = "📭 У вас пока нет сохраненных анкет."
	msgHistoryOff      = "История анкет недоступна."
	noticeNoSurvey     = "❌ Нет активного опроса"
	noticeStale        = "⚠️ Этот вариант сейчас недоступен"
)

// mainMenuChoices is shown outside of a survey.
func mainMenuChoices() botport.ChoiceSet {
	return botport.ChoiceSet{
		{{Text: ButtonStartSurvey, Token: TokenStartSurvey}, {Text: ButtonHelp, Token: TokenHelpInfo}},
		{{Text: ButtonCancelSurvey, Token: TokenCancelSurvey}, {Text: ButtonNewSurvey, Token: TokenNewSurvey}},
	}
}

// completionChoices is attached to the final report.
func completionChoices() botport.ChoiceSet {
	return botport.ChoiceSet{
		{{Text: ButtonNewSurvey, Token: TokenNewSurvey}},
	}
}

// withSurveyControls appends the progress/cancel/restart row to a question prompt.
func withSurveyControls(choices botport.ChoiceSet) botport.ChoiceSet {
	out := make(botport.ChoiceSet, 0, len(choices)+1)
	out = append(out, choices...)
	return append(out, []botport.Choice{
		{Text: ButtonShowProgress, Token: TokenShowProgress},
		{Text: ButtonCancelSurvey, Token: TokenCancelSurvey},
		{Text: ButtonRestartSurvey, Token: TokenRestartSurvey},
	})
}

func isMenuToken(token string) bool {
	switch token {
	case TokenStartSurvey, TokenNewSurvey, TokenRestartSurvey, TokenCancelSurvey, TokenHelpInfo, TokenShowProgress:
		return true
	}
	return false
}
