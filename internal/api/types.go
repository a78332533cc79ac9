// Package api is the client for the remote interview API: session start,
// question generation and answer scoring.
package api

// MetaInit marks the history entry the server writes when a session starts.
const MetaInit = "init"

type startRequest struct {
	UserID          string `json:"user_id"`
	Topic           string `json:"topic"`
	ExperienceLevel string `json:"experience_level"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

type submitRequest struct {
	SessionID    string `json:"session_id"`
	Answer       string `json:"answer"`
	QuestionText string `json:"question_text"`
}

// QuestionResponse is the body of GET /get_question/{id}.
type QuestionResponse struct {
	Question   string         `json:"question"`
	Difficulty string         `json:"difficulty"`
	Topic      string         `json:"topic"`
	History    []HistoryEntry `json:"history"`
}

// HistoryEntry is one element of a session's server-side history. It is
// either a metadata entry (Meta set, carrying topic and level) or a
// question/answer record.
type HistoryEntry struct {
	Meta         string   `json:"meta,omitempty"`
	Topic        string   `json:"topic,omitempty"`
	Level        string   `json:"level,omitempty"`
	Question     string   `json:"question,omitempty"`
	Answer       string   `json:"answer,omitempty"`
	Score        float64  `json:"score,omitempty"`
	Feedback     string   `json:"feedback,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// IsMeta reports whether the entry carries session metadata instead of a Q/A pair.
func (e HistoryEntry) IsMeta() bool {
	return e.Meta != ""
}

// Record is a question/answer pair scored by the server.
type Record struct {
	Question     string
	Answer       string
	Score        float64
	Feedback     string
	Strengths    []string
	Improvements []string
}

// Meta is the topic and level recovered from an init entry.
type Meta struct {
	Topic string
	Level string
}

// Evaluation is the body of POST /submit_answer.
type Evaluation struct {
	Score           float64 `json:"score"`
	Feedback        string  `json:"feedback"`
	NextDifficulty  string  `json:"next_difficulty,omitempty"`
	CorrectSolution string  `json:"correct_solution,omitempty"`
}

// RemoteSession is one element of GET /my_sessions/{user_id}.
type RemoteSession struct {
	SessionID      string `json:"session_id"`
	Topic          string `json:"topic"`
	CreatedAt      string `json:"created_at"`
	QuestionsCount int    `json:"questions_count"`
	Difficulty     string `json:"difficulty"`
}

type mySessionsResponse struct {
	Sessions []RemoteSession `json:"sessions"`
}

// Health is the body of GET /health.
type Health struct {
	Status       string            `json:"status"`
	Message      string            `json:"message"`
	APIKeyStatus string            `json:"api_key_status,omitempty"`
	Components   map[string]string `json:"components,omitempty"`
}

// SplitHistory separates question/answer records from metadata entries.
// Metadata entries never appear in the returned records; the first "init"
// entry's topic and level are returned as Meta (nil when absent).
func SplitHistory(entries []HistoryEntry) ([]Record, *Meta) {
	records := make([]Record, 0, len(entries))
	var meta *Meta
	for _, e := range entries {
		if e.IsMeta() {
			if e.Meta == MetaInit && meta == nil {
				meta = &Meta{Topic: e.Topic, Level: e.Level}
			}
			continue
		}
		records = append(records, Record{
			Question:     e.Question,
			Answer:       e.Answer,
			Score:        e.Score,
			Feedback:     e.Feedback,
			Strengths:    e.Strengths,
			Improvements: e.Improvements,
		})
	}
	return records, meta
}
