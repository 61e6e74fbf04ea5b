// Package grader is the grading and reconciliation engine. It consumes a
// question bank table and a student answer sheet table that need not share a
// schema, and produces per-student scores, wrong-question lists, and
// per-question class error statistics.
package grader

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nuid"

	"github.com/markbook/markbook/internal/model"
	"github.com/markbook/markbook/internal/schema"
	"github.com/markbook/markbook/internal/table"
)

// EmptyInputError reports a table with zero valid rows after filtering.
type EmptyInputError struct {
	Table string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no valid rows in %s", e.Table)
}

// Options tunes a grading run.
type Options struct {
	// Exam names the run for the history archive. Optional.
	Exam string
	// Classify overrides the column role inference strategy.
	// Nil means schema.KeywordClassifier.
	Classify schema.Classifier
}

// Identifier texts marking bank summary/total rows rather than questions.
// Matched as substrings of the lower-cased identifier, the way noisy
// spreadsheet footers actually look.
var excludedIDMarkers = []string{"总分", "合计", "得分", "统计", "nan"}

// Student sheet columns that identify the student rather than hold answers.
var nameKeywords = []string{"姓名", "name", "student"}

// Grade runs one complete grading pass. Both tables are read-only inputs;
// the returned Run is a self-contained immutable snapshot.
//
// Grading is deterministic and order-independent across students: each
// student's result depends only on their own row and the shared answer key.
func Grade(bank, sheet table.Table, opts Options) (*model.Run, error) {
	cols, err := schema.Infer(bank.Columns, opts.Classify)
	if err != nil {
		return nil, err
	}

	questions := collectQuestions(bank, cols)
	if len(questions) == 0 {
		return nil, &EmptyInputError{Table: "question bank"}
	}

	paperTotal := 0.0
	for _, q := range questions {
		paperTotal += q.Points
	}

	res := newResolver(sheet.Columns)
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	warnCollisions(ids, res)

	nameCol := nameColumn(sheet.Columns)
	results := make(map[string]model.StudentResult)
	var order []string

	for _, row := range sheet.Rows {
		name := strings.TrimSpace(row[nameCol].Text())
		if name == "" || strings.EqualFold(name, "nan") {
			continue
		}

		r := model.StudentResult{Name: name}
		for _, q := range questions {
			var raw table.Cell
			if col, ok := res.column(q.ID); ok {
				raw = row[col]
			}
			if Normalize(raw) == Normalize(q.Answer) {
				r.Score += q.Points
			} else {
				r.WrongQuestions = append(r.WrongQuestions, q.ID)
			}
		}

		// Duplicate names: the later row replaces the earlier result.
		if _, seen := results[name]; !seen {
			order = append(order, name)
		}
		results[name] = r
	}
	if len(results) == 0 {
		return nil, &EmptyInputError{Table: "student sheet"}
	}

	// Stats derive from the final per-student results so the class miss
	// counts stay consistent with the surviving wrong-question lists even
	// when duplicate names overwrote earlier rows.
	stats := make(model.ClassStats, len(questions))
	for _, q := range questions {
		stats[q.ID] = 0
	}
	for _, r := range results {
		for _, id := range r.WrongQuestions {
			stats[id]++
		}
	}

	return &model.Run{
		ID:         nuid.Next(),
		CreatedAt:  time.Now(),
		Exam:       opts.Exam,
		Columns:    cols,
		Questions:  questions,
		PaperTotal: paperTotal,
		Results:    results,
		Order:      order,
		Stats:      stats,
		Bank:       bank,
	}, nil
}

// collectQuestions filters the bank down to valid question rows and derives
// the answer key. Duplicate identifiers keep the last row seen.
func collectQuestions(bank table.Table, cols model.ColumnMap) []model.Question {
	idCol := cols[model.RoleIdentifier]
	ansCol := cols[model.RoleAnswer]
	scoreCol := cols[model.RoleScore]
	contentCol := cols[model.RoleContent]

	var questions []model.Question
	index := map[string]int{}
	for _, row := range bank.Rows {
		id := strings.TrimSpace(row[idCol].Text())
		if id == "" || isExcludedID(id) {
			continue
		}
		points, _ := row[scoreCol].Float() // non-numeric scores count 0
		q := model.Question{
			ID:     id,
			Answer: row[ansCol],
			Points: points,
		}
		if contentCol != "" {
			q.Content = strings.TrimSpace(row[contentCol].Text())
		}
		if i, dup := index[id]; dup {
			questions[i] = q
			continue
		}
		index[id] = len(questions)
		questions = append(questions, q)
	}
	return questions
}

// isExcludedID reports whether the identifier text marks a summary/total row.
func isExcludedID(id string) bool {
	lower := strings.ToLower(id)
	for _, marker := range excludedIDMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// nameColumn picks the student-identifying column: the first whose name
// matches a name keyword, else the left-most column.
func nameColumn(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, kw := range nameKeywords {
			if strings.Contains(lower, kw) {
				return col
			}
		}
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return ""
}
