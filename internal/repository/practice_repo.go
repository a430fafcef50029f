package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// PracticeRepository handles practice session database operations
type PracticeRepository struct {
	db database.DBTX
}

// NewPracticeRepository creates a new practice repository
func NewPracticeRepository(db database.DBTX) *PracticeRepository {
	return &PracticeRepository{db: db}
}

type sessionRow struct {
	ID               string       `db:"id"`
	Section          string       `db:"section"`
	Topic            string       `db:"topic"`
	TimeLimitSeconds int          `db:"time_limit_seconds"`
	StartedAt        time.Time    `db:"started_at"`
	CompletedAt      sql.NullTime `db:"completed_at"`
	TotalQuestions   int          `db:"total_questions"`
	CorrectAnswers   int          `db:"correct_answers"`
	BestRun          int          `db:"best_run"`
	XPEarned         int          `db:"xp_earned"`
}

const sessionColumns = `id, section, topic, time_limit_seconds, started_at, completed_at,
	total_questions, correct_answers, best_run, xp_earned`

func (r sessionRow) toModel() models.PracticeSession {
	return models.PracticeSession{
		ID:               r.ID,
		Section:          models.Section(r.Section),
		Topic:            r.Topic,
		TimeLimitSeconds: r.TimeLimitSeconds,
		StartedAt:        r.StartedAt,
		CompletedAt:      timePtr(r.CompletedAt),
		TotalQuestions:   r.TotalQuestions,
		CorrectAnswers:   r.CorrectAnswers,
		BestRun:          r.BestRun,
		XPEarned:         r.XPEarned,
	}
}

// CreateSession inserts s, assigning a new id when s.ID is empty
func (r *PracticeRepository) CreateSession(s *models.PracticeSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO practice_sessions (id, section, topic, time_limit_seconds, started_at, completed_at,
			total_questions, correct_answers, best_run, xp_earned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		s.ID, string(s.Section), s.Topic, s.TimeLimitSeconds, s.StartedAt.UTC(), nullTime(s.CompletedAt),
		s.TotalQuestions, s.CorrectAnswers, s.BestRun, s.XPEarned,
	)
	return errors.Wrap(err, "failed to insert practice session")
}

// GetSessionByID returns nil, nil when the session does not exist
func (r *PracticeRepository) GetSessionByID(sessionID string) (*models.PracticeSession, error) {
	var row sessionRow
	err := r.db.Get(&row, `SELECT `+sessionColumns+` FROM practice_sessions WHERE id = ?`, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load session %s", sessionID)
	}

	session := row.toModel()
	return &session, nil
}

// RecordAnswer bumps the running totals of a session
func (r *PracticeRepository) RecordAnswer(sessionID string, correct bool, xp int) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}

	query := `
		UPDATE practice_sessions
		SET total_questions = total_questions + 1, correct_answers = correct_answers + ?, xp_earned = xp_earned + ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, correctInc, xp, sessionID)
	return errors.Wrapf(err, "failed to record answer for session %s", sessionID)
}

// CompleteSession marks a session as complete and adds the completion XP
func (r *PracticeRepository) CompleteSession(sessionID string, completedAt time.Time, bestRun, xp int) error {
	query := `
		UPDATE practice_sessions
		SET completed_at = ?, best_run = ?, xp_earned = xp_earned + ?
		WHERE id = ? AND completed_at IS NULL
	`

	result, err := r.db.Exec(query, completedAt.UTC(), bestRun, xp, sessionID)
	if err != nil {
		return errors.Wrapf(err, "failed to complete session %s", sessionID)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("session %s is missing or already completed", sessionID)
	}
	return nil
}

// ListSessions returns sessions newest first; limit <= 0 returns all
func (r *PracticeRepository) ListSessions(limit int) ([]models.PracticeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM practice_sessions ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []sessionRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	out := make([]models.PracticeSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
