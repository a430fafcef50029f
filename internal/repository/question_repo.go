package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
)

// QuestionRepository handles logged questions and their review state
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

type questionRow struct {
	ID              int64     `db:"id"`
	Section         string    `db:"section"`
	Topic           string    `db:"topic"`
	Text            string    `db:"question_text"`
	Options         string    `db:"options"`
	CorrectAnswer   string    `db:"correct_answer"`
	Explanation     string    `db:"explanation"`
	IntervalDays    int       `db:"interval_days"`
	EaseFactor      float64   `db:"ease_factor"`
	RepetitionCount int       `db:"repetition_count"`
	NextReviewDate  string    `db:"next_review_date"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

const questionColumns = `id, section, topic, question_text, options, correct_answer, explanation,
	interval_days, ease_factor, repetition_count, next_review_date, created_at, updated_at`

func (r questionRow) toModel() (models.Question, error) {
	var options []string
	if err := json.Unmarshal([]byte(r.Options), &options); err != nil {
		return models.Question{}, errors.Wrapf(err, "question %d has malformed options", r.ID)
	}
	next, err := parseDate(r.NextReviewDate)
	if err != nil {
		return models.Question{}, err
	}

	return models.Question{
		ID:            r.ID,
		Section:       models.Section(r.Section),
		Topic:         r.Topic,
		Text:          r.Text,
		Options:       options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Review: models.ReviewState{
			IntervalDays:    r.IntervalDays,
			EaseFactor:      r.EaseFactor,
			RepetitionCount: r.RepetitionCount,
			NextReviewDate:  next,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func toQuestions(rows []questionRow) ([]models.Question, error) {
	out := make([]models.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Create inserts q, including its review state, and sets q.ID
func (r *QuestionRepository) Create(q *models.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return errors.Wrap(err, "failed to encode options")
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}

	query := `
		INSERT INTO questions (section, topic, question_text, options, correct_answer, explanation,
			interval_days, ease_factor, repetition_count, next_review_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		string(q.Section), q.Topic, q.Text, string(options), q.CorrectAnswer, q.Explanation,
		q.Review.IntervalDays, q.Review.EaseFactor, q.Review.RepetitionCount,
		formatDate(q.Review.NextReviewDate), q.CreatedAt.UTC(), q.UpdatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert question")
	}

	q.ID = id
	return nil
}

// GetByID returns nil, nil when the question does not exist
func (r *QuestionRepository) GetByID(id int64) (*models.Question, error) {
	var row questionRow
	err := r.db.Get(&row, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load question %d", id)
	}

	q, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateReviewState stores the spaced-repetition fields; content is never rewritten
func (r *QuestionRepository) UpdateReviewState(id int64, state models.ReviewState, updatedAt time.Time) error {
	query := `
		UPDATE questions
		SET interval_days = ?, ease_factor = ?, repetition_count = ?, next_review_date = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		state.IntervalDays, state.EaseFactor, state.RepetitionCount,
		formatDate(state.NextReviewDate), updatedAt.UTC(), id,
	)
	return errors.Wrapf(err, "failed to update review state of question %d", id)
}

// ListDue returns questions whose next review date is on or before today
func (r *QuestionRepository) ListDue(today time.Time) ([]models.Question, error) {
	var rows []questionRow
	query := `SELECT ` + questionColumns + ` FROM questions WHERE next_review_date <= ? ORDER BY next_review_date, id`
	if err := r.db.Select(&rows, query, formatDate(today)); err != nil {
		return nil, errors.Wrap(err, "failed to list due questions")
	}
	return toQuestions(rows)
}

// CountDue counts questions whose next review date is on or before today
func (r *QuestionRepository) CountDue(today time.Time) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM questions WHERE next_review_date <= ?`, formatDate(today))
	return count, errors.Wrap(err, "failed to count due questions")
}

// ListAll returns every question in insertion order
func (r *QuestionRepository) ListAll() ([]models.Question, error) {
	var rows []questionRow
	if err := r.db.Select(&rows, `SELECT `+questionColumns+` FROM questions ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "failed to list questions")
	}
	return toQuestions(rows)
}

// Count returns the number of logged questions
func (r *QuestionRepository) Count() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM questions`)
	return count, errors.Wrap(err, "failed to count questions")
}
