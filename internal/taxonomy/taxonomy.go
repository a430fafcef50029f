// Package taxonomy holds the fixed set of GMAT sections and topics that
// mastery is tracked against.
package taxonomy

import (
	"strings"

	"gmatprep/internal/models"
)

// Entry is one (section, topic) pair
type Entry struct {
	Section models.Section
	Topic   string
}

var topics = map[models.Section][]string{
	models.SectionQuant: {
		"Arithmetic",
		"Algebra",
		"Word Problems",
		"Number Properties",
		"Statistics",
		"Geometry",
	},
	models.SectionVerbal: {
		"Critical Reasoning",
		"Reading Comprehension",
	},
	models.SectionDataInsights: {
		"Data Sufficiency",
		"Multi-Source Reasoning",
		"Table Analysis",
		"Graphics Interpretation",
		"Two-Part Analysis",
	},
}

// All returns every entry, sections in exam order
func All() []Entry {
	var out []Entry
	for _, s := range models.Sections {
		for _, t := range topics[s] {
			out = append(out, Entry{Section: s, Topic: t})
		}
	}
	return out
}

// TopicsFor returns the topics of one section
func TopicsFor(section models.Section) []string {
	out := make([]string, len(topics[section]))
	copy(out, topics[section])
	return out
}

// Contains reports whether topic belongs to section
func Contains(section models.Section, topic string) bool {
	_, ok := Canonical(section, topic)
	return ok
}

// Canonical returns the topic spelled as in the taxonomy, matching case-insensitively
func Canonical(section models.Section, topic string) (string, bool) {
	topic = strings.TrimSpace(topic)
	for _, t := range topics[section] {
		if strings.EqualFold(t, topic) {
			return t, true
		}
	}
	return "", false
}
