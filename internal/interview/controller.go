// Package interview drives one practice session: start, fetch question,
// submit answer, show feedback, repeat, end and save.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/log"
	"github.com/intervue-dev/intervue/internal/session"
	"github.com/intervue-dev/intervue/internal/speech"
)

// State is the controller's position in the session flow.
type State int

const (
	NoSession State = iota
	AwaitingQuestion
	QuestionDisplayed
	Submitting
	FeedbackDisplayed
	Ended
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no-session"
	case AwaitingQuestion:
		return "awaiting-question"
	case QuestionDisplayed:
		return "question"
	case Submitting:
		return "submitting"
	case FeedbackDisplayed:
		return "feedback"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

var (
	ErrNotAuthenticated    = errors.New("please sign in first")
	ErrEmptyAnswer         = errors.New("answer is empty")
	ErrNoSession           = errors.New("no active session")
	ErrBusy                = errors.New("a request is already in progress")
	ErrSelectionIncomplete = errors.New("choose a domain, topic and level first")
)

// StateError is returned when an operation is not valid in the current state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// API is the remote session API.
type API interface {
	StartInterview(ctx context.Context, userID, topic, level string) (string, error)
	GetNextQuestion(ctx context.Context, sessionID string) (*api.QuestionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, answer, question string) (*api.Evaluation, error)
}

// Recorder persists the session summary written on End.
type Recorder interface {
	Insert(ctx context.Context, s history.NewSession) (*history.Session, error)
}

// Speaker plays text aloud. It must not block.
type Speaker interface {
	Speak(text string)
}

// Tracker remembers started sessions on this machine.
type Tracker interface {
	TrackPractice(p *session.Practice) error
	UpdatePractice(id, status string, answered int) error
}

// Deps are the controller's collaborators. Speaker, Tracker and Events are
// optional.
type Deps struct {
	API      API
	Recorder Recorder
	Users    *auth.State
	Catalog  config.InterviewConfig
	Speaker  Speaker
	Tracker  Tracker
	Events   *log.Logger
	Logger   zerolog.Logger
}

// Snapshot is a copy of the controller's state for rendering.
type Snapshot struct {
	State      State
	Busy       bool
	SessionID  string
	Domain     string
	Topic      string
	Level      string
	Question   string
	Difficulty string
	Answer     string
	Evaluation *api.Evaluation
	Records    []history.QA
	Saved      *history.Session
}

// Controller is the session state machine. Network calls are made without
// holding the lock; the busy flag rejects overlapping operations.
type Controller struct {
	deps Deps

	mu         sync.Mutex
	state      State
	busy       bool
	sessionID  string
	domain     string
	topic      string
	level      string
	question   string
	difficulty string
	answer     string
	eval       *api.Evaluation
	records    []history.QA
	saved      *history.Session
}

// New creates a controller in NoSession.
func New(deps Deps) *Controller {
	level := deps.Catalog.DefaultLevel
	return &Controller{deps: deps, level: level}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:      c.state,
		Busy:       c.busy,
		SessionID:  c.sessionID,
		Domain:     c.domain,
		Topic:      c.topic,
		Level:      c.level,
		Question:   c.question,
		Difficulty: c.difficulty,
		Answer:     c.answer,
		Records:    append([]history.QA(nil), c.records...),
		Saved:      c.saved,
	}
	if c.eval != nil {
		e := *c.eval
		snap.Evaluation = &e
	}
	return snap
}

// Select sets the domain, topic and level for the next Start.
func (c *Controller) Select(domainID, topic, level string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != NoSession && c.state != Ended {
		return &StateError{Op: "change selection", State: c.state}
	}
	if domainID == "" || topic == "" || level == "" {
		return ErrSelectionIncomplete
	}
	domain, ok := c.deps.Catalog.Domain(domainID)
	if !ok {
		return fmt.Errorf("unknown domain %q", domainID)
	}
	if !containsFold(domain.Topics, topic) {
		return fmt.Errorf("topic %q is not part of %s", topic, domain.Name)
	}
	if !c.deps.Catalog.ValidLevel(level) {
		return fmt.Errorf("unknown experience level %q", level)
	}

	c.domain, c.topic, c.level = domain.ID, canonical(domain.Topics, topic), level
	return nil
}

// Start opens a remote session for the selected topic and level.
func (c *Controller) Start(ctx context.Context) (string, error) {
	user := c.deps.Users.User()
	if user == nil {
		return "", ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", ErrBusy
	}
	if c.state != NoSession && c.state != Ended {
		st := c.state
		c.mu.Unlock()
		return "", &StateError{Op: "start", State: st}
	}
	if c.topic == "" || c.level == "" {
		c.mu.Unlock()
		return "", ErrSelectionIncomplete
	}
	topic, level := c.topic, c.level
	c.busy = true
	c.mu.Unlock()

	id, err := c.deps.API.StartInterview(ctx, user.ID, topic, level)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	c.clearSessionLocked()
	c.sessionID = id
	c.state = AwaitingQuestion
	c.mu.Unlock()

	c.track(&session.Practice{ID: id, UserID: user.ID, Topic: topic, Level: level})
	c.logEvent(log.LogEvent{Event: log.EventSessionStarted, UserID: user.ID, SessionID: id, Topic: topic, Level: level})
	c.deps.Logger.Info().Str("session", id).Str("topic", topic).Msg("interview started")
	return id, nil
}

// Resume reattaches to an existing remote session and loads its next
// question. Topic and level come from the session's init entry.
func (c *Controller) Resume(ctx context.Context, sessionID string) error {
	user := c.deps.Users.User()
	if user == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(sessionID) == "" {
		return ErrNoSession
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != NoSession && c.state != Ended {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: "resume", State: st}
	}
	c.clearSessionLocked()
	c.sessionID = sessionID
	c.state = AwaitingQuestion
	c.mu.Unlock()

	if err := c.LoadNext(ctx); err != nil {
		c.mu.Lock()
		c.clearSessionLocked()
		c.state = NoSession
		c.mu.Unlock()
		return err
	}

	snap := c.Snapshot()
	c.track(&session.Practice{ID: sessionID, UserID: user.ID, Topic: snap.Topic, Level: snap.Level, Answered: len(snap.Records)})
	c.logEvent(log.LogEvent{Event: log.EventSessionResumed, UserID: user.ID, SessionID: sessionID, Topic: snap.Topic, Level: snap.Level, Questions: len(snap.Records)})
	return nil
}

// LoadNext fetches the next question. Local records are replaced by the
// server's history; the previous answer and feedback are cleared.
func (c *Controller) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != AwaitingQuestion && c.state != FeedbackDisplayed {
		st := c.state
		c.mu.Unlock()
		return &StateError{Op: "load a question", State: st}
	}
	prev := c.state
	id := c.sessionID
	c.state = AwaitingQuestion
	c.busy = true
	c.mu.Unlock()

	resp, err := c.deps.API.GetNextQuestion(ctx, id)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.state = prev
		c.mu.Unlock()
		return err
	}

	records, meta := api.SplitHistory(resp.History)
	c.records = toQA(records)
	if meta != nil {
		if meta.Topic != "" {
			c.topic = meta.Topic
		}
		if meta.Level != "" {
			c.level = meta.Level
		}
	} else if c.topic == "" && resp.Topic != "" {
		c.topic = resp.Topic
	}
	if d, ok := c.deps.Catalog.DomainForTopic(c.topic); ok {
		c.domain = d.ID
	}
	c.question = resp.Question
	c.difficulty = resp.Difficulty
	c.answer = ""
	c.eval = nil
	c.state = QuestionDisplayed
	question := c.question
	c.mu.Unlock()

	c.speak(question)
	c.logEvent(log.LogEvent{Event: log.EventQuestionLoaded, SessionID: id, Difficulty: resp.Difficulty})
	return nil
}

// SetAnswer replaces the draft answer.
func (c *Controller) SetAnswer(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != QuestionDisplayed {
		return &StateError{Op: "edit the answer", State: c.state}
	}
	c.answer = text
	return nil
}

// AppendTranscript adds recognized speech to the draft answer.
func (c *Controller) AppendTranscript(transcript string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != QuestionDisplayed {
		return &StateError{Op: "edit the answer", State: c.state}
	}
	c.answer = speech.AppendTranscript(c.answer, transcript)
	return nil
}

// Submit sends the draft answer for scoring. The scored record is appended
// locally and the score and feedback are spoken.
func (c *Controller) Submit(ctx context.Context) (*api.Evaluation, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.state != QuestionDisplayed {
		st := c.state
		c.mu.Unlock()
		return nil, &StateError{Op: "submit", State: st}
	}
	if strings.TrimSpace(c.answer) == "" {
		c.mu.Unlock()
		return nil, ErrEmptyAnswer
	}
	id, question, answer := c.sessionID, c.question, c.answer
	c.state = Submitting
	c.busy = true
	c.mu.Unlock()

	eval, err := c.deps.API.SubmitAnswer(ctx, id, answer, question)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.state = QuestionDisplayed
		c.mu.Unlock()
		return nil, err
	}
	c.eval = eval
	c.records = append(c.records, history.QA{
		Question: question,
		Answer:   answer,
		Score:    eval.Score,
		Feedback: eval.Feedback,
	})
	c.state = FeedbackDisplayed
	answered := len(c.records)
	c.mu.Unlock()

	c.speak(FeedbackUtterance(eval))
	c.trackUpdate(id, session.StatusActive, answered)
	c.logEvent(log.LogEvent{Event: log.EventAnswerSubmitted, SessionID: id, Score: eval.Score, Questions: answered})
	out := *eval
	return &out, nil
}

// End writes the session summary and moves to Ended.
func (c *Controller) End(ctx context.Context) (*history.Session, error) {
	user := c.deps.Users.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.sessionID == "" || c.state == NoSession || c.state == Ended {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	id := c.sessionID
	records := append([]history.QA(nil), c.records...)
	c.busy = true
	c.mu.Unlock()

	row := history.NewSession{
		UserID:            user.ID,
		Duration:          c.deps.Catalog.DurationLabel,
		QuestionsAnswered: len(records),
		AverageScore:      float64(AverageScore(records)),
		Status:            history.StatusCompleted,
		Questions:         records,
	}
	saved, err := c.deps.Recorder.Insert(ctx, row)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.saved = saved
	c.state = Ended
	c.mu.Unlock()

	c.trackUpdate(id, session.StatusEnded, len(records))
	c.logEvent(log.LogEvent{Event: log.EventSessionSaved, UserID: user.ID, SessionID: id, Score: row.AverageScore, Questions: len(records)})
	c.deps.Logger.Info().Str("session", id).Int("questions", len(records)).Msg("interview saved")
	return saved, nil
}

// Reset drops the current session and keeps the selection.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.clearSessionLocked()
	c.state = NoSession
	return nil
}

func (c *Controller) clearSessionLocked() {
	c.sessionID = ""
	c.question = ""
	c.difficulty = ""
	c.answer = ""
	c.eval = nil
	c.records = nil
	c.saved = nil
}

func (c *Controller) speak(text string) {
	if c.deps.Speaker != nil {
		c.deps.Speaker.Speak(text)
	}
}

func (c *Controller) track(p *session.Practice) {
	if c.deps.Tracker == nil {
		return
	}
	if err := c.deps.Tracker.TrackPractice(p); err != nil {
		c.deps.Logger.Warn().Err(err).Str("session", p.ID).Msg("track practice")
	}
}

func (c *Controller) trackUpdate(id, status string, answered int) {
	if c.deps.Tracker == nil {
		return
	}
	if err := c.deps.Tracker.UpdatePractice(id, status, answered); err != nil {
		c.deps.Logger.Warn().Err(err).Str("session", id).Msg("update practice")
	}
}

func (c *Controller) logEvent(e log.LogEvent) {
	if err := c.deps.Events.Append(e); err != nil {
		c.deps.Logger.Warn().Err(err).Str("event", e.Event).Msg("append event")
	}
}

// FeedbackUtterance is the text spoken after an answer is scored.
func FeedbackUtterance(eval *api.Evaluation) string {
	return fmt.Sprintf("You scored %s. %s", FormatScore(eval.Score), eval.Feedback)
}

// FormatScore renders a score without trailing zeros.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// AverageScore is round(sum/count) over the records, 0 when there are none.
func AverageScore(records []history.QA) int {
	if len(records) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(decimal.NewFromFloat(r.Score))
	}
	return int(sum.Div(decimal.NewFromInt(int64(len(records)))).Round(0).IntPart())
}

func toQA(records []api.Record) []history.QA {
	out := make([]history.QA, 0, len(records))
	for _, r := range records {
		out = append(out, history.QA{
			Question:     r.Question,
			Answer:       r.Answer,
			Score:        r.Score,
			Feedback:     r.Feedback,
			Strengths:    r.Strengths,
			Improvements: r.Improvements,
		})
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func canonical(list []string, s string) string {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return v
		}
	}
	return s
}
