package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/intervue-dev/intervue/internal/config"
)

// sessionRow maps interview_sessions for gorm. Questions are stored as
// jsonb and decoded separately.
type sessionRow struct {
	ID                string         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            string         `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null;default:now()"`
	Duration          string         `gorm:"column:duration"`
	QuestionsAnswered int            `gorm:"column:questions_answered"`
	AverageScore      float64        `gorm:"column:average_score"`
	Status            string         `gorm:"column:status"`
	QuestionsJSON     datatypes.JSON `gorm:"column:questions;type:jsonb"`
}

type teamRow struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey"`
	Name           string `gorm:"column:name"`
	Role           string `gorm:"column:role"`
	Bio            string `gorm:"column:bio"`
	ProfilePicture string `gorm:"column:profile_picture"`
	LinkedInURL    string `gorm:"column:linkedin_url"`
	PortfolioURL   string `gorm:"column:portfolio_url"`
	DisplayOrder   int    `gorm:"column:display_order"`
}

// PostgresRepository reads and writes the tables directly. There is no
// row-level security on this path, so every query is scoped to the viewer.
type PostgresRepository struct {
	db            *gorm.DB
	sessionsTable string
	teamTable     string
	viewer        Viewer
	now           func() time.Time
}

// OpenPostgres connects to cfg.URL.
func OpenPostgres(cfg config.DatabaseConfig, viewer Viewer) (*PostgresRepository, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("open postgres: database url is empty")
	}
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresRepository(db, cfg, viewer), nil
}

// NewPostgresRepository wraps an open gorm handle.
func NewPostgresRepository(db *gorm.DB, cfg config.DatabaseConfig, viewer Viewer) *PostgresRepository {
	return &PostgresRepository{
		db:            db,
		sessionsTable: cfg.SessionsTable,
		teamTable:     cfg.TeamTable,
		viewer:        viewer,
		now:           time.Now,
	}
}

func (r *PostgresRepository) sessions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.sessionsTable)
}

// List returns the user's sessions, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]Session, error) {
	if _, err := requireUser(r.viewer); err != nil {
		return nil, err
	}
	var rows []sessionRow
	if err := r.sessions(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]Session, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toSession()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Get returns one of the viewer's sessions.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	user, err := requireUser(r.viewer)
	if err != nil {
		return nil, err
	}

	var row sessionRow
	err = r.sessions(ctx).Where("id = ? AND user_id = ?", id, user.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toSession()
}

// Insert writes one session row.
func (r *PostgresRepository) Insert(ctx context.Context, ns NewSession) (*Session, error) {
	if _, err := requireUser(r.viewer); err != nil {
		return nil, err
	}
	row, err := newSessionRow(ns, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.sessions(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return row.toSession()
}

// Delete removes one of the viewer's sessions.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	user, err := requireUser(r.viewer)
	if err != nil {
		return err
	}

	res := r.sessions(ctx).Where("id = ? AND user_id = ?", id, user.ID).Delete(&sessionRow{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTeam returns team members ordered by display order.
func (r *PostgresRepository) ListTeam(ctx context.Context) ([]TeamMember, error) {
	var rows []teamRow
	if err := r.db.WithContext(ctx).Table(r.teamTable).Order("display_order asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	var members []TeamMember
	if err := copier.Copy(&members, &rows); err != nil {
		return nil, fmt.Errorf("map team rows: %w", err)
	}
	return members, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newSessionRow(ns NewSession, now time.Time) (*sessionRow, error) {
	row := &sessionRow{}
	if err := copier.Copy(row, &ns); err != nil {
		return nil, fmt.Errorf("map session: %w", err)
	}
	questions := ns.Questions
	if questions == nil {
		questions = []QA{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	row.ID = uuid.New().String()
	row.CreatedAt = now.UTC()
	row.QuestionsJSON = datatypes.JSON(data)
	return row, nil
}

func (row *sessionRow) toSession() (*Session, error) {
	s := &Session{}
	if err := copier.Copy(s, row); err != nil {
		return nil, fmt.Errorf("map session row: %w", err)
	}
	if len(row.QuestionsJSON) > 0 {
		if err := json.Unmarshal(row.QuestionsJSON, &s.Questions); err != nil {
			return nil, fmt.Errorf("decode questions for %s: %w", row.ID, err)
		}
	}
	s.normalize()
	return s, nil
}
