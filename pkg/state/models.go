package state

import "time"

// Answer keys stored in Session.Answers.
const (
	AnswerFullName    = "full_name"
	AnswerBirthDate   = "birth_date"
	AnswerCitizenship = "citizenship"
)

// Session is the in-flight survey progress of one user.
type Session struct {
	UserID        int64
	UserName      string
	State         string
	Answers       map[string]string
	LastMessageID int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession returns an empty session positioned at initialState.
func NewSession(userID int64, userName, initialState string, now time.Time) Session {
	return Session{
		UserID:    userID,
		UserName:  userName,
		State:     initialState,
		Answers:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}
