package service

import (
	"strings"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/logger"
	"gmatprep/internal/models"
	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
	"gmatprep/internal/taxonomy"
	"gmatprep/internal/validation"
)

// NewQuestion is a question as entered by the learner or read from a sheet
type NewQuestion struct {
	Section       models.Section
	Topic         string
	Text          string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

// QuestionService logs questions into the review bank
type QuestionService struct {
	db      *database.DB
	tracker *progress.Tracker
	log     *logger.Logger
}

// NewQuestionService creates a new question service
func NewQuestionService(db *database.DB, tracker *progress.Tracker, log *logger.Logger) *QuestionService {
	return &QuestionService{
		db:      db,
		tracker: tracker,
		log:     log.With("component", "questions"),
	}
}

// LoggedQuestion is the result of logging one question
type LoggedQuestion struct {
	Question *models.Question
	Stats    models.UserStats
	Outcome  progress.Outcome
}

// LogQuestion validates and stores a question, due for review today
func (s *QuestionService) LogQuestion(in NewQuestion) (*LoggedQuestion, error) {
	var result *LoggedQuestion

	err := s.db.WithTx(func(tx *database.Tx) error {
		logged, err := s.logQuestion(repository.NewStore(tx), in)
		if err != nil {
			return err
		}
		result = logged
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to log question")
	}

	s.log.Info("question logged",
		"id", result.Question.ID,
		"section", string(result.Question.Section),
		"topic", result.Question.Topic,
		"xp", result.Outcome.XPGranted,
	)
	return result, nil
}

// ImportQuestions logs a batch in a single transaction. Nothing is stored
// when any question fails.
func (s *QuestionService) ImportQuestions(batch []NewQuestion) ([]LoggedQuestion, error) {
	results := make([]LoggedQuestion, 0, len(batch))

	err := s.db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)
		for i, in := range batch {
			logged, err := s.logQuestion(store, in)
			if err != nil {
				return errors.Wrapf(err, "question %d", i+1)
			}
			results = append(results, *logged)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to import questions")
	}

	s.log.Info("questions imported", "count", len(results))
	return results, nil
}

func (s *QuestionService) logQuestion(store *repository.Store, in NewQuestion) (*LoggedQuestion, error) {
	q, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	if err := store.Questions.Create(q); err != nil {
		return nil, err
	}

	total, err := store.Questions.Count()
	if err != nil {
		return nil, err
	}
	stats, err := store.Stats.Get()
	if err != nil {
		return nil, err
	}
	book, err := loadBook(store)
	if err != nil {
		return nil, err
	}

	stats, out := s.tracker.LogQuestion(stats, total, book)
	if err := saveUnlocks(store, out); err != nil {
		return nil, err
	}
	if err := store.Stats.Update(stats); err != nil {
		return nil, err
	}

	return &LoggedQuestion{Question: q, Stats: stats, Outcome: out}, nil
}

// prepare validates in and builds the model with a fresh review state
func (s *QuestionService) prepare(in NewQuestion) (*models.Question, error) {
	options := make([]string, len(in.Options))
	for i, opt := range in.Options {
		options[i] = strings.TrimSpace(opt)
	}

	if err := validation.ValidateQuestion(in.Section, in.Topic, in.Text, options, in.CorrectAnswer); err != nil {
		return nil, err
	}
	topic, _ := taxonomy.Canonical(in.Section, in.Topic)

	now := s.tracker.Now()
	return &models.Question{
		Section:       in.Section,
		Topic:         topic,
		Text:          strings.TrimSpace(in.Text),
		Options:       options,
		CorrectAnswer: validation.NormalizeAnswer(in.CorrectAnswer),
		Explanation:   strings.TrimSpace(in.Explanation),
		Review:        models.NewReviewState(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetQuestion returns ErrQuestionNotFound for unknown ids
func (s *QuestionService) GetQuestion(id int64) (*models.Question, error) {
	q, err := repository.NewStore(s.db).Questions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	return q, nil
}
