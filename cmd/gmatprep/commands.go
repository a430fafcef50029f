package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gmatprep/internal/importer"
	"gmatprep/internal/models"
	"gmatprep/internal/reminder"
	"gmatprep/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply migrations and seed topics, achievements and stats",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		seeded, err := service.SeedDefaults(a.db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database ready: %d topics and %d achievements added\n", seeded.Topics, seeded.Achievements)
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Log questions from a spreadsheet",
	Long: `Log questions from a spreadsheet, one per row after a header row:
  A Section  B Topic  C Question  D-H Options A-E  I Answer  J Explanation

Rows that fail validation are reported and skipped. Use --strict to
refuse the whole file instead.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		sheet, _ := cmd.Flags().GetString("sheet")
		strict, _ := cmd.Flags().GetBool("strict")
		out := cmd.OutOrStdout()

		if _, err := service.SeedDefaults(a.db); err != nil {
			return err
		}

		cfg := importer.DefaultConfig()
		cfg.SheetName = sheet
		result, err := importer.ReadFile(args[0], cfg)
		if err != nil {
			return err
		}

		for _, rowErr := range result.Errors {
			fmt.Fprintln(out, rowErr.Error())
		}
		if strict && len(result.Errors) > 0 {
			return errors.Errorf("%d of %d rows are invalid, nothing imported", len(result.Errors), result.TotalProcessed)
		}
		if len(result.Questions) == 0 {
			fmt.Fprintln(out, "No questions to import")
			return nil
		}

		logged, err := a.questions.ImportQuestions(result.Questions)
		if err != nil {
			return err
		}

		xp := 0
		for _, l := range logged {
			xp += l.Outcome.XPGranted
			for _, ach := range l.Outcome.Unlocked {
				fmt.Fprintf(out, "Achievement unlocked: %s (+%d XP)\n", ach.Name, ach.XPReward)
			}
		}
		fmt.Fprintf(out, "Imported %d questions (+%d XP), skipped %d rows\n", len(logged), xp, len(result.Errors))
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database to a JSON backup",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}

		dir := filepath.Dir(outputPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrap(err, "failed to create output directory")
			}
		}

		if err := a.backup.ExportFile(outputPath); err != nil {
			return err
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			return errors.Wrap(err, "failed to stat backup")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s (%.2f KB)\n", outputPath, float64(info.Size())/1024)
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a JSON backup into an empty database",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		inputPath, _ := cmd.Flags().GetString("input")
		clearData, _ := cmd.Flags().GetBool("clear")
		yes, _ := cmd.Flags().GetBool("yes")
		out := cmd.OutOrStdout()

		if _, err := os.Stat(inputPath); err != nil {
			return errors.Wrapf(err, "input file %s", inputPath)
		}

		if clearData {
			if !yes && !confirm(cmd, "WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
				fmt.Fprintln(out, "Restore cancelled")
				return nil
			}
			if err := a.backup.Clear(); err != nil {
				return err
			}
		}

		summary, err := a.backup.ImportFile(inputPath)
		if errors.Is(err, service.ErrDatabaseNotEmpty) {
			return errors.Wrap(err, "restore needs an empty database, use --clear to replace it")
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Restored %d questions, %d sessions, %d attempts, %d achievements\n",
			summary.Questions, summary.Sessions, summary.Attempts, summary.Achievements)
		return nil
	}),
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show XP, streak, topic mastery and achievements",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		d, err := a.practice.Dashboard()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "XP %d  |  streak %d (best %d)  |  %d questions, %d due today, %d retained\n\n",
			d.Stats.TotalXP, d.Stats.CurrentStreak, d.Stats.LongestStreak, d.TotalQuestions, d.DueToday, d.Retained)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SECTION\tTOPIC\tSEEN\tACCURACY\tTIER")
		for _, m := range d.Mastery {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%s\n",
				m.Section.Label(), m.Topic, m.QuestionsSeen, m.Accuracy()*100, m.MasteryLevel)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		for _, ach := range d.Achievements {
			mark := " "
			if ach.IsUnlocked() {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %-15s %s (%d XP)\n", mark, ach.Name, ach.Description, ach.XPReward)
		}
		return nil
	}),
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List the questions due for review, hardest first",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		questions, err := a.practice.DueQuestions(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSECTION\tTOPIC\tEASE\tNEXT\tQUESTION")
		for _, q := range questions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
				q.ID, q.Section.Label(), q.Topic, q.Review.EaseFactor,
				q.Review.NextReviewDate.Format(models.DateLayout), truncate(q.Text, 50))
		}
		return w.Flush()
	}),
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the daily review reminder until interrupted",
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		job, err := newReminderJob(ctx, a)
		if err != nil {
			return err
		}

		if once {
			sent, err := job.Tick(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder sent: %t\n", sent)
			return nil
		}
		return job.Run(ctx)
	}),
}

// newReminderJob wires every configured channel; the log channel is always on
func newReminderJob(ctx context.Context, a *app) (*reminder.Job, error) {
	notifiers := []reminder.Notifier{reminder.NewLogNotifier(a.log)}

	if a.cfg.EmailEnabled() {
		email, err := reminder.NewEmailNotifier(ctx, a.cfg.AWSRegion, a.cfg.SESFromEmail, a.cfg.SESFromName, a.cfg.ReminderEmail, a.log)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, email)
	}
	if a.cfg.TelegramEnabled() {
		tg, err := reminder.NewTelegramNotifier(a.cfg.TelegramBotToken, a.cfg.TelegramChatID, a.log)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}

	return reminder.NewJob(a.practice, reminder.NewMultiNotifier(a.log, notifiers...), a.log, reminder.JobConfig{
		Location:  loc,
		StartHour: a.cfg.NotificationStartHour,
		EndHour:   a.cfg.NotificationEndHour,
	}), nil
}

func init() {
	importCmd.Flags().String("sheet", "", "sheet to read (default: first sheet)")
	importCmd.Flags().Bool("strict", false, "import nothing if any row is invalid")

	exportCmd.Flags().StringP("output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	restoreCmd.Flags().StringP("input", "i", "", "backup file to restore (required)")
	restoreCmd.Flags().Bool("clear", false, "delete all existing data before restoring (destructive)")
	restoreCmd.Flags().BoolP("yes", "y", false, "skip the --clear confirmation")
	_ = restoreCmd.MarkFlagRequired("input")

	dueCmd.Flags().IntP("limit", "n", 20, "maximum questions to list, 0 for all")

	remindCmd.Flags().Bool("once", false, "run a single check and exit")
}
