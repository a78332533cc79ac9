package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite-backed persistence for local state.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		email TEXT NOT NULL,
		display_name TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS practice_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		level TEXT NOT NULL,
		status TEXT NOT NULL,
		answered INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveCredential replaces the stored credential with cred.
// Only one credential is kept at a time.
func (s *Store) SaveCredential(cred *Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	var expires interface{}
	if !cred.ExpiresAt.IsZero() {
		expires = cred.ExpiresAt
	}
	_, err = tx.Exec(
		`INSERT INTO credentials (id, user_id, email, display_name, access_token, refresh_token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cred.ID, cred.UserID, cred.Email, cred.DisplayName, cred.AccessToken, cred.RefreshToken, expires, cred.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credential: %w", err)
	}
	return nil
}

// Credential returns the stored credential, or nil when signed out.
func (s *Store) Credential() (*Credential, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, email, display_name, access_token, refresh_token, expires_at, created_at
		 FROM credentials
		 ORDER BY created_at DESC
		 LIMIT 1`,
	)

	var cred Credential
	var expires sql.NullTime
	err := row.Scan(&cred.ID, &cred.UserID, &cred.Email, &cred.DisplayName,
		&cred.AccessToken, &cred.RefreshToken, &expires, &cred.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if expires.Valid {
		cred.ExpiresAt = expires.Time
	}

	return &cred, nil
}

// ClearCredential removes the stored credential.
func (s *Store) ClearCredential() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// TrackPractice records a started or resumed remote session.
// Tracking an already-known id marks it active again.
func (s *Store) TrackPractice(p *Practice) error {
	now := time.Now()
	if p.Status == "" {
		p.Status = StatusActive
	}

	result, err := s.db.Exec(
		`UPDATE practice_sessions
		 SET status = ?, topic = CASE WHEN ? = '' THEN topic ELSE ? END,
		     level = CASE WHEN ? = '' THEN level ELSE ? END, updated_at = ?
		 WHERE id = ?`,
		p.Status, p.Topic, p.Topic, p.Level, p.Level, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update practice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		_, err = s.db.Exec(
			`INSERT INTO practice_sessions (id, user_id, topic, level, status, answered, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Topic, p.Level, p.Status, p.Answered, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert practice: %w", err)
		}
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	return nil
}

// UpdatePractice sets the status and answered count of a tracked session.
func (s *Store) UpdatePractice(id, status string, answered int) error {
	_, err := s.db.Exec(
		`UPDATE practice_sessions SET status = ?, answered = ?, updated_at = ? WHERE id = ?`,
		status, answered, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update practice: %w", err)
	}
	return nil
}

// LatestActive returns the most recently updated active session for userID, or nil.
func (s *Store) LatestActive(userID string) (*Practice, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, topic, level, status, answered, created_at, updated_at
		 FROM practice_sessions
		 WHERE user_id = ? AND status = 'active'
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		userID,
	)

	var p Practice
	err := row.Scan(&p.ID, &p.UserID, &p.Topic, &p.Level, &p.Status, &p.Answered, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan practice: %w", err)
	}

	return &p, nil
}

// ListPractice returns the most recent tracked sessions for userID.
func (s *Store) ListPractice(userID string, limit int) ([]Practice, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, topic, level, status, answered, created_at, updated_at
		 FROM practice_sessions
		 WHERE user_id = ?
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query practice: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Practice
	for rows.Next() {
		var p Practice
		if err := rows.Scan(&p.ID, &p.UserID, &p.Topic, &p.Level, &p.Status, &p.Answered, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan practice: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}
