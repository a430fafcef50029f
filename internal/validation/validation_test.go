package validation

import (
	"errors"
	"testing"

	"gmatprep/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfidence(t *testing.T) {
	for _, c := range []models.Confidence{1, 2, 3} {
		if err := ValidateConfidence(c); err != nil {
			t.Errorf("ValidateConfidence(%d) = %v", c, err)
		}
	}
	for _, c := range []models.Confidence{0, 4, -1} {
		if err := ValidateConfidence(c); err == nil {
			t.Errorf("ValidateConfidence(%d) expected error", c)
		}
	}
}

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name        string
		answer      string
		optionCount int
		wantErr     bool
	}{
		{"first option", "A", 5, false},
		{"lower case", "c", 5, false},
		{"padded", " E ", 5, false},
		{"past last option", "E", 4, true},
		{"empty", "", 5, true},
		{"two letters", "AB", 5, true},
		{"digit", "1", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(tt.answer, tt.optionCount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAnswer(%q, %d) error = %v, wantErr %v", tt.answer, tt.optionCount, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTimeSpent(t *testing.T) {
	if err := ValidateTimeSpent(0); err != nil {
		t.Errorf("zero should be valid: %v", err)
	}
	if err := ValidateTimeSpent(-1); err == nil {
		t.Error("negative time should be rejected")
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name      string
		section   models.Section
		topic     string
		wantField string
	}{
		{"valid", models.SectionQuant, "Algebra", ""},
		{"unknown section", models.Section("essay"), "Algebra", "section"},
		{"empty topic", models.SectionVerbal, " ", "topic"},
		{"topic from another section", models.SectionVerbal, "Geometry", "topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopic(tt.section, tt.topic)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	options := []string{"1", "2", "3", "4", "5"}

	tests := []struct {
		name      string
		text      string
		options   []string
		answer    string
		wantField string
	}{
		{"valid", "What is 1+1?", options, "B", ""},
		{"missing text", "", options, "B", "question"},
		{"one option", "Q", []string{"only"}, "A", "options"},
		{"six options", "Q", append(options, "6"), "A", "options"},
		{"blank option", "Q", []string{"x", " "}, "A", "options"},
		{"answer out of range", "Q", []string{"x", "y"}, "C", "correct_answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(models.SectionQuant, "Arithmetic", tt.text, tt.options, tt.answer)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateReviewState(t *testing.T) {
	tests := []struct {
		name      string
		state     models.ReviewState
		wantField string
	}{
		{"fresh", models.ReviewState{IntervalDays: 1, EaseFactor: models.DefaultEaseFactor}, ""},
		{"at floor", models.ReviewState{IntervalDays: 6, EaseFactor: models.MinEaseFactor, RepetitionCount: 2}, ""},
		{"ease below floor", models.ReviewState{IntervalDays: 1, EaseFactor: 0.5}, "ease_factor"},
		{"zero interval", models.ReviewState{IntervalDays: 0, EaseFactor: 2.5}, "interval_days"},
		{"negative reps", models.ReviewState{IntervalDays: 1, EaseFactor: 2.5, RepetitionCount: -3}, "repetition_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, ValidateReviewState(tt.state), tt.wantField)
		})
	}
}

func TestValidateMasteryCounts(t *testing.T) {
	assertField(t, ValidateMasteryCounts(0, 0), "")
	assertField(t, ValidateMasteryCounts(9, 9), "")
	assertField(t, ValidateMasteryCounts(2, 9), "questions_correct")
	assertField(t, ValidateMasteryCounts(-1, 0), "questions_seen")
}

func TestValidateStats(t *testing.T) {
	tests := []struct {
		name      string
		stats     models.UserStats
		wantField string
	}{
		{"empty", models.UserStats{}, ""},
		{"streak on record", models.UserStats{TotalXP: 60, CurrentStreak: 3, LongestStreak: 3}, ""},
		{"negative xp", models.UserStats{TotalXP: -500}, "total_xp"},
		{"negative streak", models.UserStats{CurrentStreak: -1}, "current_streak"},
		{"longest below current", models.UserStats{CurrentStreak: 9, LongestStreak: 2}, "longest_streak"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, ValidateStats(tt.stats), tt.wantField)
		})
	}
}

func assertField(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != wantField {
		t.Errorf("Field = %q, want %q", ve.Field, wantField)
	}
}

func TestValidateSessionScope(t *testing.T) {
	q := models.Question{Section: models.SectionQuant, Topic: "Algebra"}

	tests := []struct {
		name      string
		session   models.PracticeSession
		wantField string
	}{
		{"mixed session", models.PracticeSession{}, ""},
		{"same section", models.PracticeSession{Section: models.SectionQuant}, ""},
		{"same topic", models.PracticeSession{Section: models.SectionQuant, Topic: "Algebra"}, ""},
		{"other section", models.PracticeSession{Section: models.SectionVerbal}, "question"},
		{"other topic", models.PracticeSession{Section: models.SectionQuant, Topic: "Geometry"}, "question"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, ValidateSessionScope(tt.session, q), tt.wantField)
		})
	}
}
