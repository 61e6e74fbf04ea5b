package store

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/markbook/markbook/internal/model"
	"github.com/markbook/markbook/internal/table"
)

var (
	// ErrNoRun means no grading run has been committed (or it was cleared).
	ErrNoRun = errors.New("no grading run committed")
	// ErrStudentNotFound means the student is absent from the current run.
	ErrStudentNotFound = errors.New("student not found in current run")
)

// Current holds the most recent grading run. It is a single-slot snapshot:
// Commit swaps the whole immutable Run in one atomic store, so concurrent
// readers always observe either the old run or the new one in full, never a
// torn mix.
type Current struct {
	run atomic.Pointer[model.Run]
}

// NewCurrent returns an empty snapshot holder.
func NewCurrent() *Current {
	return &Current{}
}

// Commit atomically replaces the prior run.
func (c *Current) Commit(r *model.Run) {
	c.run.Store(r)
}

// Run returns the committed run, or ok=false when the store is empty.
func (c *Current) Run() (*model.Run, bool) {
	r := c.run.Load()
	return r, r != nil
}

// Clear discards the committed run.
func (c *Current) Clear() {
	c.run.Store(nil)
}

// Lookup returns the grading result for one student.
func (c *Current) Lookup(name string) (model.StudentResult, error) {
	r, ok := c.Run()
	if !ok {
		return model.StudentResult{}, ErrNoRun
	}
	res, ok := r.Results[name]
	if !ok {
		return model.StudentResult{}, ErrStudentNotFound
	}
	return res, nil
}

// MissedQuestionRows returns the bank rows for the questions the student got
// wrong, with the bank's full column set, ready for export.
func (c *Current) MissedQuestionRows(name string) (table.Table, error) {
	r, ok := c.Run()
	if !ok {
		return table.Table{}, ErrNoRun
	}
	res, ok := r.Results[name]
	if !ok {
		return table.Table{}, ErrStudentNotFound
	}

	wrong := make(map[string]bool, len(res.WrongQuestions))
	for _, id := range res.WrongQuestions {
		wrong[id] = true
	}

	idCol := r.Columns[model.RoleIdentifier]
	return r.Bank.Filter(func(row table.Row) bool {
		return wrong[strings.TrimSpace(row[idCol].Text())]
	}), nil
}

// ClassSummary returns every graded student's (name, score) sorted by score
// descending, ties broken by name so the ordering is deterministic.
func (c *Current) ClassSummary() ([]model.StudentScore, error) {
	r, ok := c.Run()
	if !ok {
		return nil, ErrNoRun
	}
	summary := make([]model.StudentScore, 0, len(r.Results))
	for _, res := range r.Results {
		summary = append(summary, model.StudentScore{Name: res.Name, Score: res.Score})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Score != summary[j].Score {
			return summary[i].Score > summary[j].Score
		}
		return summary[i].Name < summary[j].Name
	})
	return summary, nil
}
