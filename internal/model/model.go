package model

import (
	"time"

	"github.com/markbook/markbook/internal/table"
)

// Role is a logical column role in the question bank table.
type Role string

const (
	// RoleIdentifier is the question identifier column.
	RoleIdentifier Role = "identifier"
	// RoleAnswer is the correct answer column.
	RoleAnswer Role = "answer"
	// RoleScore is the point value column.
	RoleScore Role = "score"
	// RoleContent is the optional question content column.
	RoleContent Role = "content"
)

// MandatoryRoles must all be resolved before grading proceeds.
var MandatoryRoles = []Role{RoleIdentifier, RoleAnswer, RoleScore}

// ColumnMap maps logical roles to concrete column names of the bank table.
// Built once per question bank upload and never mutated afterward.
type ColumnMap map[Role]string

// MissingRoles returns the mandatory roles not resolved by the map.
func (m ColumnMap) MissingRoles() []Role {
	var missing []Role
	for _, r := range MandatoryRoles {
		if m[r] == "" {
			missing = append(missing, r)
		}
	}
	return missing
}

// Question is one valid row of the question bank.
type Question struct {
	ID      string     `json:"id"`
	Answer  table.Cell `json:"-"`
	Points  float64    `json:"points"`
	Content string     `json:"content,omitempty"`
}

// StudentResult holds one graded student's outcome.
type StudentResult struct {
	Name           string   `json:"name"`
	Score          float64  `json:"score"`
	WrongQuestions []string `json:"wrong_questions"`
}

// StudentScore is a (name, score) pair for class summaries.
type StudentScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ClassStats maps a question identifier to the number of students who missed it.
type ClassStats map[string]int

// Run is the immutable outcome of one complete grading pass.
// The result store replaces whole Run values; nothing here is mutated
// after Grade returns.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Exam       string
	Columns    ColumnMap
	Questions  []Question // bank order
	PaperTotal float64
	Results    map[string]StudentResult
	Order      []string // graded student names, sheet order
	Stats      ClassStats
	Bank       table.Table // kept for re-exporting missed questions with full content
}

// ExamSummary describes one archived grading run.
type ExamSummary struct {
	Exam       string    `json:"exam"`
	CreatedAt  time.Time `json:"created_at"`
	PaperTotal float64   `json:"paper_total"`
	Students   int       `json:"students"`
}
