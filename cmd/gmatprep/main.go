package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gmatprep/internal/config"
	"gmatprep/internal/database"
	"gmatprep/internal/logger"
	"gmatprep/internal/progress"
	"gmatprep/internal/service"
	"gmatprep/migrations"
)

var rootCmd = &cobra.Command{
	Use:   "gmatprep",
	Short: "GMAT practice with spaced repetition, mastery tiers and streaks",
	Long: `gmatprep keeps a bank of GMAT questions you got wrong, schedules them
for review with SM-2, and tracks topic mastery, your daily streak, XP and
achievements.

Configuration comes from the environment or a .env file:
  DATABASE_TYPE    sqlite, postgres or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./gmatprep.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(
		migrateCmd,
		importCmd,
		exportCmd,
		restoreCmd,
		dashboardCmd,
		dueCmd,
		remindCmd,
	)
}

// app holds everything a command needs
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	tracker   *progress.Tracker
	questions *service.QuestionService
	practice  *service.PracticeService
	backup    *service.BackupService
}

// newApp loads configuration, opens the database and applies pending migrations
func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	applied, err := db.RunMigrations(database.MigrationsFS(cfg.MigrationsPath, migrations.FS))
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	for _, name := range applied {
		log.Info("applied migration", "file", name)
	}

	loc, err := cfg.Location()
	if err != nil {
		db.Close()
		return nil, err
	}
	tracker := progress.NewTracker(func() time.Time { return time.Now().In(loc) })

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		tracker:   tracker,
		questions: service.NewQuestionService(db, tracker, log),
		practice:  service.NewPracticeService(db, tracker, log, cfg.DefaultTimeLimit),
		backup:    service.NewBackupService(db, log),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
	a.log.Sync()
}

// withApp runs fn with a ready app and closes it afterwards
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
