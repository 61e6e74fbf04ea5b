package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/markbook/markbook/internal/model"

	_ "modernc.org/sqlite"
)

// ErrExamNotFound means no archived run has the requested exam name.
var ErrExamNotFound = errors.New("exam not found in archive")

// Store is the sqlite-backed exam history archive. Committed runs are
// persisted by exam name so past exams stay queryable and comparable after
// the in-memory run is replaced or the process restarts.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the archive database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exams (
		name TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		paper_total REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS exam_scores (
		exam TEXT NOT NULL,
		student TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		wrong_questions TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (exam, student),
		FOREIGN KEY (exam) REFERENCES exams(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS exam_stats (
		exam TEXT NOT NULL,
		question_id TEXT NOT NULL,
		misses INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (exam, question_id),
		FOREIGN KEY (exam) REFERENCES exams(name) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun archives a committed run under its exam name, replacing any prior
// archive entry with the same name. Runs without a name archive under their
// run ID.
func (s *Store) SaveRun(run *model.Run) error {
	exam := run.Exam
	if exam == "" {
		exam = run.ID
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM exam_scores WHERE exam = ?`,
		`DELETE FROM exam_stats WHERE exam = ?`,
		`DELETE FROM exams WHERE name = ?`,
	} {
		if _, err := tx.Exec(stmt, exam); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`INSERT INTO exams (name, run_id, created_at, paper_total) VALUES (?, ?, ?, ?)`,
		exam, run.ID, run.CreatedAt, run.PaperTotal,
	)
	if err != nil {
		return err
	}

	for _, name := range run.Order {
		res := run.Results[name]
		wrong, err := json.Marshal(res.WrongQuestions)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO exam_scores (exam, student, score, wrong_questions) VALUES (?, ?, ?, ?)`,
			exam, res.Name, res.Score, string(wrong),
		)
		if err != nil {
			return err
		}
	}

	for _, q := range run.Questions {
		_, err = tx.Exec(
			`INSERT INTO exam_stats (exam, question_id, misses) VALUES (?, ?, ?)`,
			exam, q.ID, run.Stats[q.ID],
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListExams returns summaries of all archived exams, newest first.
func (s *Store) ListExams() ([]model.ExamSummary, error) {
	rows, err := s.db.Query(
		`SELECT e.name, e.created_at, e.paper_total, COUNT(sc.student)
		 FROM exams e LEFT JOIN exam_scores sc ON sc.exam = e.name
		 GROUP BY e.name ORDER BY e.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.ExamSummary
	for rows.Next() {
		var e model.ExamSummary
		var created time.Time
		if err := rows.Scan(&e.Exam, &created, &e.PaperTotal, &e.Students); err != nil {
			return nil, err
		}
		e.CreatedAt = created
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamScores returns an archived exam's per-student scores, highest first.
func (s *Store) ExamScores(exam string) ([]model.StudentScore, error) {
	if err := s.examExists(exam); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT student, score FROM exam_scores WHERE exam = ? ORDER BY score DESC, student`, exam,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scores []model.StudentScore
	for rows.Next() {
		var sc model.StudentScore
		if err := rows.Scan(&sc.Name, &sc.Score); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// ExamStats returns an archived exam's per-question miss counts.
func (s *Store) ExamStats(exam string) (model.ClassStats, error) {
	if err := s.examExists(exam); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT question_id, misses FROM exam_stats WHERE exam = ?`, exam,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := model.ClassStats{}
	for rows.Next() {
		var id string
		var misses int
		if err := rows.Scan(&id, &misses); err != nil {
			return nil, err
		}
		stats[id] = misses
	}
	return stats, rows.Err()
}

// CompareExams returns the score sets of several archived exams keyed by
// exam name, for side-by-side class comparison.
func (s *Store) CompareExams(exams []string) (map[string][]model.StudentScore, error) {
	out := make(map[string][]model.StudentScore, len(exams))
	for _, exam := range exams {
		scores, err := s.ExamScores(exam)
		if err != nil {
			return nil, fmt.Errorf("exam %q: %w", exam, err)
		}
		out[exam] = scores
	}
	return out, nil
}

// ClassAverage returns the mean score of an archived exam.
func (s *Store) ClassAverage(exam string) (float64, error) {
	if err := s.examExists(exam); err != nil {
		return 0, err
	}
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT AVG(score) FROM exam_scores WHERE exam = ?`, exam).Scan(&avg)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// DeleteExam removes an archived exam and its scores and stats.
func (s *Store) DeleteExam(exam string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM exams WHERE name = ?`, exam)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExamNotFound
	}
	if _, err := tx.Exec(`DELETE FROM exam_scores WHERE exam = ?`, exam); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM exam_stats WHERE exam = ?`, exam); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) examExists(exam string) error {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM exams WHERE name = ?`, exam).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrExamNotFound
	}
	return err
}
