package models

import (
	"strings"
	"time"
)

// Section is one of the GMAT exam sections
type Section string

const (
	SectionQuant        Section = "quant"
	SectionVerbal       Section = "verbal"
	SectionDataInsights Section = "data_insights"
)

// Sections lists every section in exam order
var Sections = []Section{SectionQuant, SectionVerbal, SectionDataInsights}

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	switch s {
	case SectionQuant, SectionVerbal, SectionDataInsights:
		return true
	}
	return false
}

// Label returns the human readable section name
func (s Section) Label() string {
	switch s {
	case SectionQuant:
		return "Quant"
	case SectionVerbal:
		return "Verbal"
	case SectionDataInsights:
		return "Data Insights"
	}
	return string(s)
}

// ParseSection accepts either the stored value ("data_insights") or the label ("Data Insights")
func ParseSection(raw string) (Section, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	s := Section(normalized)
	return s, s.Valid()
}

// Confidence is how sure the learner was when answering
type Confidence int

const (
	ConfidenceGuess     Confidence = 1
	ConfidenceUnsure    Confidence = 2
	ConfidenceConfident Confidence = 3
)

// Valid reports whether c is one of the three confidence levels
func (c Confidence) Valid() bool {
	return c >= ConfidenceGuess && c <= ConfidenceConfident
}

func (c Confidence) String() string {
	switch c {
	case ConfidenceGuess:
		return "Guess"
	case ConfidenceUnsure:
		return "Unsure"
	case ConfidenceConfident:
		return "Confident"
	}
	return "Unknown"
}

// Question is a logged practice question. Everything except Review is fixed once logged.
type Question struct {
	ID            int64
	Section       Section
	Topic         string
	Text          string
	Options       []string
	CorrectAnswer string // option letter, "A".."E"
	Explanation   string
	Review        ReviewState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
