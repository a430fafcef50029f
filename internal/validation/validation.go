package validation

import (
	"fmt"
	"regexp"
	"strings"

	"gmatprep/internal/models"
	"gmatprep/internal/taxonomy"
)

const (
	MinOptions = 2
	MaxOptions = 5
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateConfidence checks the confidence is Guess, Unsure or Confident
func ValidateConfidence(c models.Confidence) error {
	if !c.Valid() {
		return ValidationError{Field: "confidence", Message: "confidence must be 1, 2 or 3"}
	}
	return nil
}

// NormalizeAnswer upper-cases and trims an answer letter
func NormalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}

// OptionLetter returns the letter for the option at index i (0 -> "A")
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// ValidateAnswer checks answer names one of the first optionCount options
func ValidateAnswer(answer string, optionCount int) error {
	answer = NormalizeAnswer(answer)
	if answer == "" {
		return ValidationError{Field: "answer", Message: "answer is required"}
	}
	if len(answer) != 1 || answer[0] < 'A' || int(answer[0]-'A') >= optionCount {
		return ValidationError{Field: "answer", Message: fmt.Sprintf("answer must be a letter from A to %s", OptionLetter(optionCount-1))}
	}
	return nil
}

// ValidateTimeSpent rejects negative durations
func ValidateTimeSpent(seconds int) error {
	if seconds < 0 {
		return ValidationError{Field: "time_spent", Message: "time spent cannot be negative"}
	}
	return nil
}

// ValidateTopic checks the pair is part of the fixed taxonomy
func ValidateTopic(section models.Section, topic string) error {
	if !section.Valid() {
		return ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", section)}
	}
	if strings.TrimSpace(topic) == "" {
		return ValidationError{Field: "topic", Message: "topic is required"}
	}
	if !taxonomy.Contains(section, topic) {
		return ValidationError{Field: "topic", Message: fmt.Sprintf("%q is not a %s topic", topic, section.Label())}
	}
	return nil
}

// ValidateQuestion checks a question before it is logged
func ValidateQuestion(section models.Section, topic, text string, options []string, correctAnswer string) error {
	if err := ValidateTopic(section, topic); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ValidationError{Field: "question", Message: "question text is required"}
	}
	if len(options) < MinOptions || len(options) > MaxOptions {
		return ValidationError{Field: "options", Message: fmt.Sprintf("a question needs between %d and %d options", MinOptions, MaxOptions)}
	}
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return ValidationError{Field: "options", Message: fmt.Sprintf("option %s is empty", OptionLetter(i))}
		}
	}
	if err := ValidateAnswer(correctAnswer, len(options)); err != nil {
		return ValidationError{Field: "correct_answer", Message: err.(ValidationError).Message}
	}
	return nil
}

// ValidateReviewState checks a stored review state is one SM-2 could produce
func ValidateReviewState(rs models.ReviewState) error {
	if rs.EaseFactor < models.MinEaseFactor {
		return ValidationError{Field: "ease_factor", Message: fmt.Sprintf("ease factor must be at least %.1f", models.MinEaseFactor)}
	}
	if rs.IntervalDays < 1 {
		return ValidationError{Field: "interval_days", Message: "interval must be at least one day"}
	}
	if rs.RepetitionCount < 0 {
		return ValidationError{Field: "repetition_count", Message: "repetition count cannot be negative"}
	}
	return nil
}

// ValidateMasteryCounts checks correct answers never outnumber questions seen
func ValidateMasteryCounts(seen, correct int) error {
	if seen < 0 || correct < 0 {
		return ValidationError{Field: "questions_seen", Message: "counters cannot be negative"}
	}
	if correct > seen {
		return ValidationError{Field: "questions_correct", Message: "correct answers exceed questions seen"}
	}
	return nil
}

// ValidateStats checks XP and streak counters
func ValidateStats(stats models.UserStats) error {
	if stats.TotalXP < 0 {
		return ValidationError{Field: "total_xp", Message: "XP cannot be negative"}
	}
	if stats.CurrentStreak < 0 {
		return ValidationError{Field: "current_streak", Message: "streak cannot be negative"}
	}
	if stats.LongestStreak < stats.CurrentStreak {
		return ValidationError{Field: "longest_streak", Message: "longest streak is shorter than the current one"}
	}
	return nil
}

// ValidateSessionScope checks a question falls inside the section and topic
// a session was started for. Empty session fields accept anything.
func ValidateSessionScope(session models.PracticeSession, q models.Question) error {
	if session.Section != "" && q.Section != session.Section {
		return ValidationError{Field: "question", Message: fmt.Sprintf("question is not part of this %s session", session.Section.Label())}
	}
	if session.Topic != "" && !strings.EqualFold(q.Topic, session.Topic) {
		return ValidationError{Field: "question", Message: fmt.Sprintf("question is not part of this %s session", session.Topic)}
	}
	return nil
}
