package repository

import (
	"database/sql"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/models"
	"gmatprep/internal/taxonomy"
)

// MasteryRepository handles the per-topic practice counters
type MasteryRepository struct {
	db database.DBTX
}

// NewMasteryRepository creates a new mastery repository
func NewMasteryRepository(db database.DBTX) *MasteryRepository {
	return &MasteryRepository{db: db}
}

type masteryRow struct {
	Section          string         `db:"section"`
	Topic            string         `db:"topic"`
	QuestionsSeen    int            `db:"questions_seen"`
	QuestionsCorrect int            `db:"questions_correct"`
	MasteryLevel     string         `db:"mastery_level"`
	LastPracticed    sql.NullString `db:"last_practiced"`
}

const masteryColumns = `section, topic, questions_seen, questions_correct, mastery_level, last_practiced`

func (r masteryRow) toModel() (models.TopicMastery, error) {
	level, ok := models.ParseMasteryLevel(r.MasteryLevel)
	if !ok {
		return models.TopicMastery{}, errors.Errorf("unknown mastery level %q for %s/%s", r.MasteryLevel, r.Section, r.Topic)
	}
	last, err := parseNullDate(r.LastPracticed)
	if err != nil {
		return models.TopicMastery{}, err
	}

	return models.TopicMastery{
		Section:          models.Section(r.Section),
		Topic:            r.Topic,
		QuestionsSeen:    r.QuestionsSeen,
		QuestionsCorrect: r.QuestionsCorrect,
		MasteryLevel:     level,
		LastPracticed:    last,
	}, nil
}

// Seed inserts a Novice row for every entry that is missing and returns how many were added
func (r *MasteryRepository) Seed(entries []taxonomy.Entry) (int, error) {
	query := r.db.GetDialect().InsertIgnoreQuery("topic_mastery", []string{"section", "topic", "mastery_level"})

	added := 0
	for _, e := range entries {
		result, err := r.db.Exec(query, string(e.Section), e.Topic, models.MasteryNovice.String())
		if err != nil {
			return added, errors.Wrapf(err, "failed to seed %s/%s", e.Section, e.Topic)
		}
		if n, err := result.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

// Get returns nil, nil when the pair has no row
func (r *MasteryRepository) Get(section models.Section, topic string) (*models.TopicMastery, error) {
	var row masteryRow
	query := `SELECT ` + masteryColumns + ` FROM topic_mastery WHERE section = ? AND topic = ?`
	err := r.db.Get(&row, query, string(section), topic)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load mastery for %s/%s", section, topic)
	}

	m, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Update overwrites the counters and tier of an existing row
func (r *MasteryRepository) Update(m models.TopicMastery) error {
	query := `
		UPDATE topic_mastery
		SET questions_seen = ?, questions_correct = ?, mastery_level = ?, last_practiced = ?
		WHERE section = ? AND topic = ?
	`

	_, err := r.db.Exec(query,
		m.QuestionsSeen, m.QuestionsCorrect, m.MasteryLevel.String(), nullDate(m.LastPracticed),
		string(m.Section), m.Topic,
	)
	return errors.Wrapf(err, "failed to update mastery for %s/%s", m.Section, m.Topic)
}

// List returns every row ordered by section and topic
func (r *MasteryRepository) List() ([]models.TopicMastery, error) {
	var rows []masteryRow
	if err := r.db.Select(&rows, `SELECT `+masteryColumns+` FROM topic_mastery ORDER BY section, topic`); err != nil {
		return nil, errors.Wrap(err, "failed to list mastery")
	}

	out := make([]models.TopicMastery, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
