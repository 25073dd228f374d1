package questions

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation failure reasons.
const (
	ReasonTooFewTokens = "too_few_tokens"
	ReasonBadFormat    = "bad_format"
	ReasonFutureDate   = "future_date"
	ReasonBefore1900   = "before_1900"
	ReasonInvalidDate  = "invalid_date"
	ReasonTooShort     = "too_short"
)

// Validated fields.
const (
	FieldFullName    = "full_name"
	FieldBirthDate   = "birth_date"
	FieldCitizenship = "citizenship"
)

// DateLayout is the DD.MM.YYYY layout used for input and storage.
const DateLayout = "02.01.2006"

const minBirthYear = 1900

var datePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// ValidationError reports an answer that cannot be accepted for Field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UserMessage is the text shown to the user when the answer is rejected.
func (e *ValidationError) UserMessage() string {
	switch e.Reason {
	case ReasonTooFewTokens:
		return "❌ Пожалуйста, введите полное ФИО (например: Иванов Иван Иванович)"
	case ReasonBadFormat:
		return "❌ Неверный формат даты! Используйте формат ДД.ММ.ГГГГ (например: 15.03.1990)"
	case ReasonFutureDate:
		return "❌ Дата рождения не может быть в будущем!"
	case ReasonBefore1900:
		return "❌ Дата рождения не может быть раньше 1900 года!"
	case ReasonInvalidDate:
		return "❌ Неверная дата! Проверьте правильность введенной даты."
	case ReasonTooShort:
		return "❌ Пожалуйста, введите ваше гражданство."
	default:
		return "❌ Некорректный ответ, попробуйте ещё раз."
	}
}

// ValidateFullName accepts text with at least two whitespace separated words
// and returns it trimmed.
func ValidateFullName(text string) (string, error) {
	value := strings.TrimSpace(text)
	if len(strings.Fields(value)) < 2 {
		return "", &ValidationError{Field: FieldFullName, Reason: ReasonTooFewTokens}
	}
	return value, nil
}

// ParseBirthDate checks a DD.MM.YYYY birth date against now. The date must
// exist on the calendar, must not be after now and must fall in 1900 or later.
func ParseBirthDate(text string, now time.Time) (string, time.Time, error) {
	value := strings.TrimSpace(text)
	if !datePattern.MatchString(value) {
		return "", time.Time{}, &ValidationError{Field: FieldBirthDate, Reason: ReasonBadFormat}
	}
	date, err := time.ParseInLocation(DateLayout, value, now.Location())
	if err != nil {
		return "", time.Time{}, &ValidationError{Field: FieldBirthDate, Reason: ReasonInvalidDate}
	}
	if date.After(now) {
		return "", time.Time{}, &ValidationError{Field: FieldBirthDate, Reason: ReasonFutureDate}
	}
	if date.Year() < minBirthYear {
		return "", time.Time{}, &ValidationError{Field: FieldBirthDate, Reason: ReasonBefore1900}
	}
	return date.Format(DateLayout), date, nil
}

// ValidateCitizenship accepts any trimmed value of at least two characters.
func ValidateCitizenship(text string) (string, error) {
	value := strings.TrimSpace(text)
	if utf8.RuneCountInString(value) < 2 {
		return "", &ValidationError{Field: FieldCitizenship, Reason: ReasonTooShort}
	}
	return value, nil
}
