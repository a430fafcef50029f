package repository

import (
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// AttemptRepository stores answer submissions. Attempts are insert-only.
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

type attemptRow struct {
	ID               int64     `db:"id"`
	SessionID        string    `db:"session_id"`
	QuestionID       int64     `db:"question_id"`
	SelectedAnswer   string    `db:"selected_answer"`
	IsCorrect        bool      `db:"is_correct"`
	Confidence       int       `db:"confidence"`
	TimeSpentSeconds int       `db:"time_spent_seconds"`
	AttemptedAt      time.Time `db:"attempted_at"`
}

const attemptColumns = `id, session_id, question_id, selected_answer, is_correct, confidence, time_spent_seconds, attempted_at`

func (r attemptRow) toModel() models.Attempt {
	return models.Attempt{
		ID:               r.ID,
		SessionID:        r.SessionID,
		QuestionID:       r.QuestionID,
		SelectedAnswer:   r.SelectedAnswer,
		IsCorrect:        r.IsCorrect,
		Confidence:       models.Confidence(r.Confidence),
		TimeSpentSeconds: r.TimeSpentSeconds,
		AttemptedAt:      r.AttemptedAt,
	}
}

func toAttempts(rows []attemptRow) []models.Attempt {
	out := make([]models.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out
}

// Create records an attempt and sets a.ID
func (r *AttemptRepository) Create(a *models.Attempt) error {
	query := `
		INSERT INTO attempts (session_id, question_id, selected_answer, is_correct, confidence, time_spent_seconds, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		a.SessionID, a.QuestionID, a.SelectedAnswer, a.IsCorrect,
		int(a.Confidence), a.TimeSpentSeconds, a.AttemptedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert attempt")
	}

	a.ID = id
	return nil
}

// ListBySession returns the attempts of one session in submission order
func (r *AttemptRepository) ListBySession(sessionID string) ([]models.Attempt, error) {
	var rows []attemptRow
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE session_id = ? ORDER BY attempted_at, id`
	if err := r.db.Select(&rows, query, sessionID); err != nil {
		return nil, errors.Wrapf(err, "failed to list attempts of session %s", sessionID)
	}
	return toAttempts(rows), nil
}

// ListAll returns every attempt
func (r *AttemptRepository) ListAll() ([]models.Attempt, error) {
	var rows []attemptRow
	if err := r.db.Select(&rows, `SELECT `+attemptColumns+` FROM attempts ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "failed to list attempts")
	}
	return toAttempts(rows), nil
}
