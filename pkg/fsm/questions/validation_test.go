package questions

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Reason
}

func TestValidateFullName(t *testing.T) {
	_, err := ValidateFullName("Ivan")
	assert.Equal(t, ReasonTooFewTokens, reasonOf(t, err))

	_, err = ValidateFullName("   ")
	assert.Equal(t, ReasonTooFewTokens, reasonOf(t, err))

	got, err := ValidateFullName("Ivanov Ivan")
	require.NoError(t, err)
	assert.Equal(t, "Ivanov Ivan", got)

	got, err = ValidateFullName("  Иванов Иван Иванович ")
	require.NoError(t, err)
	assert.Equal(t, "Иванов Иван Иванович", got)
}

func TestParseBirthDate(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		in     string
		reason string
	}{
		{in: "31.02.1990", reason: ReasonInvalidDate},
		{in: "1990-03-15", reason: ReasonBadFormat},
		{in: "5.3.1990", reason: ReasonBadFormat},
		{in: "", reason: ReasonBadFormat},
		{in: "16.06.2024", reason: ReasonFutureDate},
		{in: "01.01.1899", reason: ReasonBefore1900},
		{in: "32.01.2000", reason: ReasonInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			_, _, err := ParseBirthDate(tc.in, now)
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}

	for _, ok := range []string{"15.03.1990", "15.06.2024", "01.01.1900", " 29.02.2000 "} {
		t.Run("accept "+ok, func(t *testing.T) {
			value, date, err := ParseBirthDate(ok, now)
			require.NoError(t, err)
			assert.Equal(t, date.Format(DateLayout), value)
		})
	}
}

func TestParseBirthDateTodayAndTomorrow(t *testing.T) {
	now := time.Now()
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)

	_, _, err := ParseBirthDate(today, now)
	assert.NoError(t, err)

	_, _, err = ParseBirthDate(tomorrow, now)
	assert.Equal(t, ReasonFutureDate, reasonOf(t, err))
}

func TestValidateCitizenship(t *testing.T) {
	_, err := ValidateCitizenship("A")
	assert.Equal(t, ReasonTooShort, reasonOf(t, err))

	_, err = ValidateCitizenship(" Я ")
	assert.Equal(t, ReasonTooShort, reasonOf(t, err))

	got, err := ValidateCitizenship("  Германия ")
	require.NoError(t, err)
	assert.Equal(t, "Германия", got)

	got, err = ValidateCitizenship("US")
	require.NoError(t, err)
	assert.Equal(t, "US", got)
}

func TestValidationErrorMessages(t *testing.T) {
	for _, reason := range []string{ReasonTooFewTokens, ReasonBadFormat, ReasonFutureDate, ReasonBefore1900, ReasonInvalidDate, ReasonTooShort} {
		ve := &ValidationError{Field: "f", Reason: reason}
		assert.NotEmpty(t, ve.UserMessage())
		assert.Contains(t, ve.Error(), reason)
	}
}
