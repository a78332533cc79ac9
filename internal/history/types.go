// Package history reads and writes completed interview sessions and the
// team-members table shown on the about screen.
package history

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// StatusCompleted is the only status written by the interview flow.
const StatusCompleted = "completed"

// MaxQuestionScore is the top of the per-question score scale.
const MaxQuestionScore = 10

var (
	// ErrNotFound means the row does not exist or is not visible to the viewer.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidID means the identifier is not a UUID.
	ErrInvalidID = errors.New("invalid session id")
	// ErrNotConfirmed is returned by a delete the user has not confirmed.
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// QA is one scored question/answer record.
type QA struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// Session is one persisted interview_sessions row.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	CreatedAt         time.Time `json:"created_at"`
	Duration          string    `json:"duration"`
	QuestionsAnswered int       `json:"questions_answered"`
	AverageScore      float64   `json:"average_score"`
	Status            string    `json:"status"`
	Questions         []QA      `json:"questions"`
}

// NewSession is the payload written when a session ends.
type NewSession struct {
	UserID            string  `json:"user_id"`
	Duration          string  `json:"duration"`
	QuestionsAnswered int     `json:"questions_answered"`
	AverageScore      float64 `json:"average_score"`
	Status            string  `json:"status"`
	Questions         []QA    `json:"questions"`
}

// normalize fills the defaults the views rely on.
func (s *Session) normalize() {
	if s.Duration == "" {
		s.Duration = "0 min"
	}
	if s.Status == "" {
		s.Status = StatusCompleted
	}
	if s.Questions == nil {
		s.Questions = []QA{}
	}
}

// TeamMember is one team_members row.
type TeamMember struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
	LinkedInURL    string `json:"linkedin_url"`
	PortfolioURL   string `json:"portfolio_url"`
	DisplayOrder   int    `json:"display_order"`
}

// Stats aggregates a session list.
type Stats struct {
	Count          int
	MeanScore      int
	TotalQuestions int
}

// Summarize reduces sessions to list-view statistics. MeanScore is the
// rounded mean of the session averages, 0 for an empty list.
func Summarize(sessions []Session) Stats {
	stats := Stats{Count: len(sessions)}
	if len(sessions) == 0 {
		return stats
	}

	sum := decimal.Zero
	for _, s := range sessions {
		sum = sum.Add(decimal.NewFromFloat(s.AverageScore))
		stats.TotalQuestions += s.QuestionsAnswered
	}
	stats.MeanScore = int(sum.Div(decimal.NewFromInt(int64(len(sessions)))).Round(0).IntPart())
	return stats
}

// Remove returns sessions without the one with id.
func Remove(sessions []Session, id string) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// Band classifies a score for colouring.
type Band int

const (
	BandLow Band = iota
	BandFair
	BandGood
)

// ScoreBand classifies a score on the per-question scale: at least 90% is
// good, at least 75% is fair.
func ScoreBand(score float64) Band {
	pct := score * 100 / MaxQuestionScore
	switch {
	case pct >= 90:
		return BandGood
	case pct >= 75:
		return BandFair
	default:
		return BandLow
	}
}
