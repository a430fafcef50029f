package service

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"gmatprep/internal/database"
	"gmatprep/internal/logger"
	"gmatprep/internal/models"
	"gmatprep/internal/progress"
	"gmatprep/internal/repository"
	"gmatprep/internal/taxonomy"
	"gmatprep/internal/validation"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	DatabaseType string              `json:"database_type"`
	Questions    []QuestionBackup    `json:"questions"`
	Sessions     []SessionBackup     `json:"sessions"`
	Attempts     []AttemptBackup     `json:"attempts"`
	Mastery      []MasteryBackup     `json:"mastery"`
	Stats        StatsBackup         `json:"stats"`
	Achievements []AchievementBackup `json:"achievements"`
}

// QuestionBackup represents a question and its review state
type QuestionBackup struct {
	ID              int64     `json:"id"`
	Section         string    `json:"section"`
	Topic           string    `json:"topic"`
	Text            string    `json:"question_text"`
	Options         []string  `json:"options"`
	CorrectAnswer   string    `json:"correct_answer"`
	Explanation     string    `json:"explanation"`
	IntervalDays    int       `json:"interval_days"`
	EaseFactor      float64   `json:"ease_factor"`
	RepetitionCount int       `json:"repetition_count"`
	NextReviewDate  string    `json:"next_review_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SessionBackup represents a practice session
type SessionBackup struct {
	ID               string     `json:"id"`
	Section          string     `json:"section"`
	Topic            string     `json:"topic"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	TotalQuestions   int        `json:"total_questions"`
	CorrectAnswers   int        `json:"correct_answers"`
	BestRun          int        `json:"best_run"`
	XPEarned         int        `json:"xp_earned"`
}

// AttemptBackup represents one answer. QuestionID refers to QuestionBackup.ID.
type AttemptBackup struct {
	SessionID        string    `json:"session_id"`
	QuestionID       int64     `json:"question_id"`
	SelectedAnswer   string    `json:"selected_answer"`
	IsCorrect        bool      `json:"is_correct"`
	Confidence       int       `json:"confidence"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	AttemptedAt      time.Time `json:"attempted_at"`
}

// MasteryBackup represents one topic_mastery row
type MasteryBackup struct {
	Section          string `json:"section"`
	Topic            string `json:"topic"`
	QuestionsSeen    int    `json:"questions_seen"`
	QuestionsCorrect int    `json:"questions_correct"`
	MasteryLevel     string `json:"mastery_level"`
	LastPracticed    string `json:"last_practiced,omitempty"`
}

// StatsBackup represents the user_stats singleton
type StatsBackup struct {
	TotalXP          int    `json:"total_xp"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastPracticeDate string `json:"last_practice_date,omitempty"`
}

// AchievementBackup records when a badge was unlocked
type AchievementBackup struct {
	Code       string     `json:"code"`
	UnlockedAt *time.Time `json:"unlocked_at"`
}

// RestoreSummary counts what a restore wrote
type RestoreSummary struct {
	Questions    int
	Sessions     int
	Attempts     int
	Mastery      int
	Achievements int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log.With("component", "backup")}
}

// ExportFile writes a backup to outputPath
func (s *BackupService) ExportFile(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer file.Close()

	if err := s.Export(file); err != nil {
		return err
	}
	return errors.Wrap(file.Sync(), "failed to flush backup")
}

// Export writes the whole database as indented JSON
func (s *BackupService) Export(w io.Writer) error {
	store := repository.NewStore(s.db)

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	if err := exportQuestions(store, backup); err != nil {
		return errors.Wrap(err, "failed to export questions")
	}
	if err := exportSessions(store, backup); err != nil {
		return errors.Wrap(err, "failed to export sessions")
	}
	if err := exportAttempts(store, backup); err != nil {
		return errors.Wrap(err, "failed to export attempts")
	}
	if err := exportProgress(store, backup); err != nil {
		return errors.Wrap(err, "failed to export progress")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return errors.Wrap(err, "failed to encode backup")
	}

	s.log.Info("export complete",
		"questions", len(backup.Questions),
		"sessions", len(backup.Sessions),
		"attempts", len(backup.Attempts),
	)
	return nil
}

func exportQuestions(store *repository.Store, backup *BackupData) error {
	questions, err := store.Questions.ListAll()
	if err != nil {
		return err
	}
	for _, q := range questions {
		backup.Questions = append(backup.Questions, QuestionBackup{
			ID:              q.ID,
			Section:         string(q.Section),
			Topic:           q.Topic,
			Text:            q.Text,
			Options:         q.Options,
			CorrectAnswer:   q.CorrectAnswer,
			Explanation:     q.Explanation,
			IntervalDays:    q.Review.IntervalDays,
			EaseFactor:      q.Review.EaseFactor,
			RepetitionCount: q.Review.RepetitionCount,
			NextReviewDate:  q.Review.NextReviewDate.Format(models.DateLayout),
			CreatedAt:       q.CreatedAt,
			UpdatedAt:       q.UpdatedAt,
		})
	}
	return nil
}

func exportSessions(store *repository.Store, backup *BackupData) error {
	sessions, err := store.Sessions.ListSessions(0)
	if err != nil {
		return err
	}
	for _, ps := range sessions {
		backup.Sessions = append(backup.Sessions, SessionBackup{
			ID:               ps.ID,
			Section:          string(ps.Section),
			Topic:            ps.Topic,
			TimeLimitSeconds: ps.TimeLimitSeconds,
			StartedAt:        ps.StartedAt,
			CompletedAt:      ps.CompletedAt,
			TotalQuestions:   ps.TotalQuestions,
			CorrectAnswers:   ps.CorrectAnswers,
			BestRun:          ps.BestRun,
			XPEarned:         ps.XPEarned,
		})
	}
	return nil
}

func exportAttempts(store *repository.Store, backup *BackupData) error {
	attempts, err := store.Attempts.ListAll()
	if err != nil {
		return err
	}
	for _, a := range attempts {
		backup.Attempts = append(backup.Attempts, AttemptBackup{
			SessionID:        a.SessionID,
			QuestionID:       a.QuestionID,
			SelectedAnswer:   a.SelectedAnswer,
			IsCorrect:        a.IsCorrect,
			Confidence:       int(a.Confidence),
			TimeSpentSeconds: a.TimeSpentSeconds,
			AttemptedAt:      a.AttemptedAt,
		})
	}
	return nil
}

func exportProgress(store *repository.Store, backup *BackupData) error {
	mastery, err := store.Mastery.List()
	if err != nil {
		return err
	}
	for _, m := range mastery {
		backup.Mastery = append(backup.Mastery, MasteryBackup{
			Section:          string(m.Section),
			Topic:            m.Topic,
			QuestionsSeen:    m.QuestionsSeen,
			QuestionsCorrect: m.QuestionsCorrect,
			MasteryLevel:     m.MasteryLevel.String(),
			LastPracticed:    formatOptionalDate(m.LastPracticed),
		})
	}

	stats, err := store.Stats.Get()
	if err != nil {
		return err
	}
	backup.Stats = StatsBackup{
		TotalXP:          stats.TotalXP,
		CurrentStreak:    stats.CurrentStreak,
		LongestStreak:    stats.LongestStreak,
		LastPracticeDate: formatOptionalDate(stats.LastPracticeDate),
	}

	achievements, err := store.Achievements.List()
	if err != nil {
		return err
	}
	for _, a := range achievements {
		backup.Achievements = append(backup.Achievements, AchievementBackup{
			Code:       string(a.Code),
			UnlockedAt: a.UnlockedAt,
		})
	}
	return nil
}

// ImportFile restores a backup file into an empty database
func (s *BackupService) ImportFile(inputPath string) (*RestoreSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open input file")
	}
	defer file.Close()

	return s.Import(file)
}

// Import restores a backup into an empty database in one transaction.
// Question ids are reassigned and attempts follow them; session ids are kept.
func (s *BackupService) Import(reader io.Reader) (*RestoreSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return nil, errors.Wrap(err, "failed to decode backup")
	}
	s.log.Info("restoring backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	summary := &RestoreSummary{}
	err := s.db.WithTx(func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		if err := ensureEmpty(store); err != nil {
			return err
		}
		if _, err := store.Mastery.Seed(taxonomy.All()); err != nil {
			return err
		}
		if _, err := store.Achievements.Seed(progress.Catalog()); err != nil {
			return err
		}

		ids, err := importQuestions(store, backup.Questions)
		if err != nil {
			return errors.Wrap(err, "failed to import questions")
		}
		summary.Questions = len(ids)

		if summary.Sessions, err = importSessions(store, backup.Sessions); err != nil {
			return errors.Wrap(err, "failed to import sessions")
		}
		if summary.Attempts, err = importAttempts(store, backup.Attempts, ids); err != nil {
			return errors.Wrap(err, "failed to import attempts")
		}
		if summary.Mastery, err = importMastery(store, backup.Mastery); err != nil {
			return errors.Wrap(err, "failed to import mastery")
		}
		if err := importStats(store, backup.Stats); err != nil {
			return errors.Wrap(err, "failed to import stats")
		}
		if summary.Achievements, err = importAchievements(store, backup.Achievements); err != nil {
			return errors.Wrap(err, "failed to import achievements")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("restore complete",
		"questions", summary.Questions,
		"sessions", summary.Sessions,
		"attempts", summary.Attempts,
		"achievements", summary.Achievements,
	)
	return summary, nil
}

// clearTables lists every data table, children first
var clearTables = []string{
	"attempts",
	"practice_sessions",
	"questions",
	"topic_mastery",
	"achievements",
	"user_stats",
}

// Clear deletes all data and re-seeds the taxonomy, the achievement
// catalog and the stats row
func (s *BackupService) Clear() error {
	err := s.db.WithTx(func(tx *database.Tx) error {
		for _, table := range clearTables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return errors.Wrapf(err, "failed to clear table %s", table)
			}
			s.log.Debug("cleared table", "table", table)
		}

		store := repository.NewStore(tx)
		if _, err := store.Mastery.Seed(taxonomy.All()); err != nil {
			return err
		}
		if _, err := store.Achievements.Seed(progress.Catalog()); err != nil {
			return err
		}
		return store.Stats.Ensure()
	})
	if err != nil {
		return errors.Wrap(err, "failed to clear database")
	}

	s.log.Warn("database cleared")
	return nil
}

func ensureEmpty(store *repository.Store) error {
	count, err := store.Questions.Count()
	if err != nil {
		return err
	}
	sessions, err := store.Sessions.ListSessions(1)
	if err != nil {
		return err
	}
	if count > 0 || len(sessions) > 0 {
		return ErrDatabaseNotEmpty
	}
	return nil
}

// importQuestions returns the mapping from backup ids to new ids
func importQuestions(store *repository.Store, questions []QuestionBackup) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(questions))
	for _, qb := range questions {
		next, err := time.Parse(models.DateLayout, qb.NextReviewDate)
		if err != nil {
			return nil, errors.Wrapf(err, "question %d has an invalid review date", qb.ID)
		}
		if _, dup := ids[qb.ID]; dup {
			return nil, errors.Errorf("question id %d appears twice", qb.ID)
		}

		review := models.ReviewState{
			IntervalDays:    qb.IntervalDays,
			EaseFactor:      qb.EaseFactor,
			RepetitionCount: qb.RepetitionCount,
			NextReviewDate:  next,
		}
		section := models.Section(qb.Section)
		if err := validation.ValidateQuestion(section, qb.Topic, qb.Text, qb.Options, qb.CorrectAnswer); err != nil {
			return nil, errors.Wrapf(err, "question %d", qb.ID)
		}
		if err := validation.ValidateReviewState(review); err != nil {
			return nil, errors.Wrapf(err, "question %d", qb.ID)
		}

		q := &models.Question{
			Section:       section,
			Topic:         qb.Topic,
			Text:          qb.Text,
			Options:       qb.Options,
			CorrectAnswer: validation.NormalizeAnswer(qb.CorrectAnswer),
			Explanation:   qb.Explanation,
			Review:        review,
			CreatedAt: qb.CreatedAt,
			UpdatedAt: qb.UpdatedAt,
		}
		if err := store.Questions.Create(q); err != nil {
			return nil, errors.Wrapf(err, "question %d", qb.ID)
		}
		ids[qb.ID] = q.ID
	}
	return ids, nil
}

func importSessions(store *repository.Store, sessions []SessionBackup) (int, error) {
	for _, sb := range sessions {
		ps := &models.PracticeSession{
			ID:               sb.ID,
			Section:          models.Section(sb.Section),
			Topic:            sb.Topic,
			TimeLimitSeconds: sb.TimeLimitSeconds,
			StartedAt:        sb.StartedAt,
			CompletedAt:      sb.CompletedAt,
			TotalQuestions:   sb.TotalQuestions,
			CorrectAnswers:   sb.CorrectAnswers,
			BestRun:          sb.BestRun,
			XPEarned:         sb.XPEarned,
		}
		if err := store.Sessions.CreateSession(ps); err != nil {
			return 0, err
		}
	}
	return len(sessions), nil
}

func importAttempts(store *repository.Store, attempts []AttemptBackup, ids map[int64]int64) (int, error) {
	for _, ab := range attempts {
		questionID, ok := ids[ab.QuestionID]
		if !ok {
			return 0, errors.Errorf("attempt references unknown question %d", ab.QuestionID)
		}
		a := &models.Attempt{
			SessionID:        ab.SessionID,
			QuestionID:       questionID,
			SelectedAnswer:   ab.SelectedAnswer,
			IsCorrect:        ab.IsCorrect,
			Confidence:       models.Confidence(ab.Confidence),
			TimeSpentSeconds: ab.TimeSpentSeconds,
			AttemptedAt:      ab.AttemptedAt,
		}
		if err := store.Attempts.Create(a); err != nil {
			return 0, err
		}
	}
	return len(attempts), nil
}

func importMastery(store *repository.Store, rows []MasteryBackup) (int, error) {
	for _, mb := range rows {
		if err := validation.ValidateMasteryCounts(mb.QuestionsSeen, mb.QuestionsCorrect); err != nil {
			return 0, errors.Wrapf(err, "mastery %s/%s", mb.Section, mb.Topic)
		}
		// the tier is derived from the counters, the stored name is informational
		level := progress.Tier(mb.QuestionsSeen, mb.QuestionsCorrect)
		last, err := parseOptionalDate(mb.LastPracticed)
		if err != nil {
			return 0, err
		}

		section := models.Section(mb.Section)
		if _, err := store.Mastery.Seed([]taxonomy.Entry{{Section: section, Topic: mb.Topic}}); err != nil {
			return 0, err
		}
		err = store.Mastery.Update(models.TopicMastery{
			Section:          section,
			Topic:            mb.Topic,
			QuestionsSeen:    mb.QuestionsSeen,
			QuestionsCorrect: mb.QuestionsCorrect,
			MasteryLevel:     level,
			LastPracticed:    last,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func importStats(store *repository.Store, sb StatsBackup) error {
	last, err := parseOptionalDate(sb.LastPracticeDate)
	if err != nil {
		return err
	}
	stats := models.UserStats{
		TotalXP:          sb.TotalXP,
		CurrentStreak:    sb.CurrentStreak,
		LongestStreak:    sb.LongestStreak,
		LastPracticeDate: last,
	}
	if err := validation.ValidateStats(stats); err != nil {
		return errors.Wrap(err, "stats")
	}
	return store.Stats.Update(stats)
}

// importAchievements replays unlock times onto the seeded catalog. Codes the
// catalog no longer has are skipped.
func importAchievements(store *repository.Store, rows []AchievementBackup) (int, error) {
	unlocked := 0
	for _, ab := range rows {
		if ab.UnlockedAt == nil {
			continue
		}
		code := models.AchievementCode(ab.Code)
		if _, known := progress.Definition(code); !known {
			continue
		}
		ok, err := store.Achievements.MarkUnlocked(code, *ab.UnlockedAt)
		if err != nil {
			return 0, err
		}
		if ok {
			unlocked++
		}
	}
	return unlocked, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid date %q", s)
	}
	return &t, nil
}
