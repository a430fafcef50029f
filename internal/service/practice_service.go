package service

import (
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/logger"
	"gmatprep/internal/models"
	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
	"gmatprep/internal/spacedrep"
	"gmatprep/internal/taxonomy"
	"gmatprep/internal/validation"
)

// PracticeService runs timed practice sessions over logged questions
type PracticeService struct {
	db               *database.DB
	tracker          *progress.Tracker
	log              *logger.Logger
	defaultTimeLimit time.Duration
}

// NewPracticeService creates a new practice service
func NewPracticeService(db *database.DB, tracker *progress.Tracker, log *logger.Logger, defaultTimeLimit time.Duration) *PracticeService {
	return &PracticeService{
		db:               db,
		tracker:          tracker,
		log:              log.With("component", "practice"),
		defaultTimeLimit: defaultTimeLimit,
	}
}

// StartSessionInput selects what a session covers. An empty section mixes
// every section; TimeLimit zero uses the configured default.
type StartSessionInput struct {
	Section   models.Section
	Topic     string
	TimeLimit time.Duration
}

// SessionStart is the result of opening a session
type SessionStart struct {
	Session *models.PracticeSession
	Stats   models.UserStats
	Outcome progress.Outcome
}

// StartSession opens a session and counts today towards the practice streak
func (s *PracticeService) StartSession(in StartSessionInput) (*SessionStart, error) {
	if in.Section != "" {
		if !in.Section.Valid() {
			return nil, validation.ValidationError{Field: "section", Message: "unknown section"}
		}
		if in.Topic != "" {
			if err := validation.ValidateTopic(in.Section, in.Topic); err != nil {
				return nil, err
			}
			in.Topic, _ = taxonomy.Canonical(in.Section, in.Topic)
		}
	} else if in.Topic != "" {
		return nil, validation.ValidationError{Field: "topic", Message: "a topic needs a section"}
	}

	limit := in.TimeLimit
	if limit == 0 {
		limit = s.defaultTimeLimit
	}
	if limit <= 0 {
		return nil, validation.ValidationError{Field: "time_limit", Message: "time limit must be positive"}
	}

	now := s.tracker.Now()
	var result SessionStart

	err := s.db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		stats, err := store.Stats.Get()
		if err != nil {
			return err
		}
		book, err := loadBook(store)
		if err != nil {
			return err
		}

		stats, out := s.tracker.RecordSessionStart(stats, book)
		if err := saveUnlocks(store, out); err != nil {
			return err
		}
		if err := store.Stats.Update(stats); err != nil {
			return err
		}

		session := &models.PracticeSession{
			Section:          in.Section,
			Topic:            in.Topic,
			TimeLimitSeconds: int(limit / time.Second),
			StartedAt:        now,
			XPEarned:         out.XPGranted,
		}
		if err := store.Sessions.CreateSession(session); err != nil {
			return err
		}

		result = SessionStart{Session: session, Stats: stats, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start session")
	}

	s.log.Info("session started",
		"session", result.Session.ID,
		"streak", result.Stats.CurrentStreak,
		"xp", result.Outcome.XPGranted,
	)
	return &result, nil
}

// SubmitAnswerInput is one answer from a learner
type SubmitAnswerInput struct {
	SessionID        string
	QuestionID       int64
	SelectedAnswer   string
	Confidence       models.Confidence
	TimeSpentSeconds int
}

// AnswerResult reports everything an answer changed
type AnswerResult struct {
	Correct       bool
	CorrectAnswer string
	Explanation   string
	Quality       spacedrep.Quality
	Review        models.ReviewState
	Mastery       models.TopicMastery
	Stats         models.UserStats
	Outcome       progress.Outcome
}

// SubmitAnswer records an attempt, reschedules the question and updates
// progress as one unit of work
func (s *PracticeService) SubmitAnswer(in SubmitAnswerInput) (*AnswerResult, error) {
	if err := validation.ValidateConfidence(in.Confidence); err != nil {
		return nil, err
	}
	if err := validation.ValidateTimeSpent(in.TimeSpentSeconds); err != nil {
		return nil, err
	}

	now := s.tracker.Now()
	var result AnswerResult

	err := s.db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		session, err := store.Sessions.GetSessionByID(in.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		question, err := store.Questions.GetByID(in.QuestionID)
		if err != nil {
			return err
		}
		if question == nil {
			return ErrQuestionNotFound
		}
		if err := validation.ValidateSessionScope(*session, *question); err != nil {
			return err
		}
		if err := validation.ValidateAnswer(in.SelectedAnswer, len(question.Options)); err != nil {
			return err
		}

		selected := validation.NormalizeAnswer(in.SelectedAnswer)
		correct := selected == question.CorrectAnswer

		attempt := &models.Attempt{
			SessionID:        session.ID,
			QuestionID:       question.ID,
			SelectedAnswer:   selected,
			IsCorrect:        correct,
			Confidence:       in.Confidence,
			TimeSpentSeconds: in.TimeSpentSeconds,
			AttemptedAt:      now,
		}
		if err := store.Attempts.Create(attempt); err != nil {
			return err
		}

		review := spacedrep.Schedule(question.Review, correct, in.Confidence, now)
		if err := store.Questions.UpdateReviewState(question.ID, review, now); err != nil {
			return err
		}

		mastery, err := s.loadMastery(store, question.Section, question.Topic)
		if err != nil {
			return err
		}
		book, err := loadBook(store)
		if err != nil {
			return err
		}
		stats, err := store.Stats.Get()
		if err != nil {
			return err
		}

		mastery, out := s.tracker.RecordAttempt(mastery, correct, book)
		stats = out.ApplyTo(stats)
		if correct {
			var retry progress.Outcome
			stats, retry = s.tracker.CorrectRetry(stats)
			out.Merge(retry)
		}

		if err := saveUnlocks(store, out); err != nil {
			return err
		}
		if err := store.Mastery.Update(mastery); err != nil {
			return err
		}
		if err := store.Stats.Update(stats); err != nil {
			return err
		}
		if err := store.Sessions.RecordAnswer(session.ID, correct, out.XPGranted); err != nil {
			return err
		}

		result = AnswerResult{
			Correct:       correct,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
			Quality:       spacedrep.QualityFor(correct, in.Confidence),
			Review:        review,
			Mastery:       mastery,
			Stats:         stats,
			Outcome:       out,
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit answer")
	}

	s.log.Debug("answer recorded",
		"session", in.SessionID,
		"question", in.QuestionID,
		"correct", result.Correct,
		"interval_days", result.Review.IntervalDays,
		"tier", result.Mastery.MasteryLevel.String(),
	)
	return &result, nil
}

// loadMastery returns the row for a topic, creating it when a question
// references a pair the seed did not cover
func (s *PracticeService) loadMastery(store *repository.Store, section models.Section, topic string) (models.TopicMastery, error) {
	m, err := store.Mastery.Get(section, topic)
	if err != nil {
		return models.TopicMastery{}, err
	}
	if m != nil {
		return *m, nil
	}

	if _, err := store.Mastery.Seed([]taxonomy.Entry{{Section: section, Topic: topic}}); err != nil {
		return models.TopicMastery{}, err
	}
	return models.TopicMastery{Section: section, Topic: topic, MasteryLevel: models.MasteryNovice}, nil
}

// SessionResult summarises a completed session
type SessionResult struct {
	Session *models.PracticeSession
	Summary progress.SessionSummary
	Stats   models.UserStats
	Outcome progress.Outcome
}

// CompleteSession closes a session and grants the completion rewards
func (s *PracticeService) CompleteSession(sessionID string) (*SessionResult, error) {
	now := s.tracker.Now()
	var result SessionResult

	err := s.db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		session, err := store.Sessions.GetSessionByID(sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		attempts, err := store.Attempts.ListBySession(sessionID)
		if err != nil {
			return err
		}
		results := make([]bool, len(attempts))
		for i, a := range attempts {
			results[i] = a.IsCorrect
		}

		summary := progress.SessionSummary{
			Elapsed:   now.Sub(session.StartedAt),
			TimeLimit: session.TimeLimit(),
			Answered:  len(attempts),
			BestRun:   progress.LongestCorrectRun(results),
		}

		stats, err := store.Stats.Get()
		if err != nil {
			return err
		}
		book, err := loadBook(store)
		if err != nil {
			return err
		}

		stats, out := s.tracker.CompleteSession(stats, summary, book)
		if err := saveUnlocks(store, out); err != nil {
			return err
		}
		if err := store.Stats.Update(stats); err != nil {
			return err
		}
		if err := store.Sessions.CompleteSession(sessionID, now, summary.BestRun, out.XPGranted); err != nil {
			return err
		}

		session, err = store.Sessions.GetSessionByID(sessionID)
		if err != nil {
			return err
		}

		result = SessionResult{Session: session, Summary: summary, Stats: stats, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to complete session")
	}

	s.log.Info("session completed",
		"session", sessionID,
		"answered", result.Summary.Answered,
		"best_run", result.Summary.BestRun,
		"xp", result.Session.XPEarned,
	)
	return &result, nil
}

// DueQuestions returns the questions to practise next, hardest first
func (s *PracticeService) DueQuestions(limit int) ([]models.Question, error) {
	now := s.tracker.Now()
	questions, err := repository.NewStore(s.db).Questions.ListDue(now)
	if err != nil {
		return nil, err
	}
	return spacedrep.DueQueue(questions, now, limit), nil
}

// CountDue returns how many questions are due today
func (s *PracticeService) CountDue() (int, error) {
	return repository.NewStore(s.db).Questions.CountDue(s.tracker.Now())
}

// Dashboard is a read-only snapshot of overall progress
type Dashboard struct {
	Stats          models.UserStats
	Mastery        []models.TopicMastery
	Achievements   []models.Achievement
	TotalQuestions int
	DueToday       int
	Retained       int
}

// Dashboard collects stats, mastery and achievements
func (s *PracticeService) Dashboard() (*Dashboard, error) {
	store := repository.NewStore(s.db)
	now := s.tracker.Now()

	stats, err := store.Stats.Get()
	if err != nil {
		return nil, err
	}
	mastery, err := store.Mastery.List()
	if err != nil {
		return nil, err
	}
	book, err := loadBook(store)
	if err != nil {
		return nil, err
	}
	questions, err := store.Questions.ListAll()
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Stats:          stats,
		Mastery:        mastery,
		Achievements:   book.All(),
		TotalQuestions: len(questions),
	}
	for _, q := range questions {
		if spacedrep.IsDue(q.Review, now) {
			d.DueToday++
		}
		if spacedrep.IsRetained(q.Review) {
			d.Retained++
		}
	}
	return d, nil
}
