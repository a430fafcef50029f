// Package importer reads logged questions from spreadsheets.
//
// Expected columns, one question per row:
//
//	A Section  B Topic  C Question  D..H Options A..E  I Answer  J Explanation
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"gmatprep/internal/models"
	"gmatprep/internal/service"
	"gmatprep/internal/validation"
)

const (
	colSection = iota
	colTopic
	colQuestion
	colFirstOption
)

const (
	colAnswer      = colFirstOption + validation.MaxOptions
	colExplanation = colAnswer + 1
)

// Config defines the import configuration
type Config struct {
	SheetName string // empty reads the first sheet
	StartRow  int    // 1-based row of the first question
}

// DefaultConfig skips a single header row on the first sheet
func DefaultConfig() Config {
	return Config{StartRow: 2}
}

// RowError is a row that could not be turned into a question
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Result holds the questions read and the rows that were rejected
type Result struct {
	TotalProcessed int
	Questions      []service.NewQuestion
	Errors         []RowError
}

// ReadFile opens an .xlsx file and parses it
func ReadFile(path string, cfg Config) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open spreadsheet")
	}
	defer f.Close()

	return parse(f, cfg)
}

// Read parses a spreadsheet from r
func Read(r io.Reader, cfg Config) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read spreadsheet")
	}
	defer f.Close()

	return parse(f, cfg)
}

func parse(f *excelize.File, cfg Config) (*Result, error) {
	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}
	start := cfg.StartRow
	if start < 1 {
		start = 1
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of %q", sheet)
	}

	result := &Result{}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < start || blank(row) {
			continue
		}
		result.TotalProcessed++

		q, err := parseRow(row)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Err: err})
			continue
		}
		result.Questions = append(result.Questions, q)
	}
	return result, nil
}

func parseRow(row []string) (service.NewQuestion, error) {
	section, ok := models.ParseSection(cell(row, colSection))
	if !ok {
		return service.NewQuestion{}, validation.ValidationError{
			Field:   "section",
			Message: fmt.Sprintf("unknown section %q", cell(row, colSection)),
		}
	}

	q := service.NewQuestion{
		Section:       section,
		Topic:         cell(row, colTopic),
		Text:          cell(row, colQuestion),
		Options:       options(row),
		CorrectAnswer: cell(row, colAnswer),
		Explanation:   cell(row, colExplanation),
	}
	if err := validation.ValidateQuestion(q.Section, q.Topic, q.Text, q.Options, q.CorrectAnswer); err != nil {
		return service.NewQuestion{}, err
	}
	return q, nil
}

// options returns the option cells up to the last filled one, so a gap
// in the middle is kept and rejected by validation
func options(row []string) []string {
	var out []string
	last := -1
	for i := 0; i < validation.MaxOptions; i++ {
		v := cell(row, colFirstOption+i)
		out = append(out, v)
		if v != "" {
			last = i
		}
	}
	return out[:last+1]
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
