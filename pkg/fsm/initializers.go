package fsm

import (
	"questionnairebot/pkg/fsm/questions"
)

// NewSurveyRegistry binds the built-in question strategies to the survey states.
func NewSurveyRegistry() *questions.Registry {
	r := questions.NewRegistry()
	r.MustRegister(StateAwaitingName, questions.NewNameStrategy())
	r.MustRegister(StateAwaitingBirthDate, questions.NewBirthDateStrategy())
	r.MustRegister(StateAwaitingCitizenship, questions.NewCitizenshipStrategy())
	r.MustRegister(StateAwaitingCustomCitizenship, questions.NewCustomCitizenshipStrategy())
	return r
}
