package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markbook/markbook/internal/grader"
	appI18n "github.com/markbook/markbook/internal/i18n"
	"github.com/markbook/markbook/internal/schema"
	"github.com/markbook/markbook/internal/store"
	"github.com/markbook/markbook/internal/table"
)

const maxUploadBytes = 32 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	current *store.Current
	archive *store.Store
}

// New creates a new Handler.
func New(current *store.Current, archive *store.Store) *Handler {
	return &Handler{current: current, archive: archive}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/grade", h.handleGrade)
	r.Get("/api/students/{name}", h.handleStudent)
	r.Get("/api/students/{name}/errorbook", h.handleErrorBook)
	r.Get("/api/scores", h.handleScores)
	r.Post("/api/clear", h.handleClear)

	r.Get("/api/exams", h.handleListExams)
	r.Get("/api/exams/{name}/scores", h.handleExamScores)
	r.Get("/api/exams/{name}/stats", h.handleExamStats)
	r.Post("/api/exams/compare", h.handleCompareExams)
	r.Delete("/api/exams/{name}", h.handleDeleteExam)
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingUpload"))
		return
	}

	sheet, err := uploadedTable(r, "student_ans")
	if err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingUpload"))
		return
	}
	bank, err := uploadedTable(r, "question_bank")
	if err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "MissingUpload"))
		return
	}

	run, err := grader.Grade(bank, sheet, grader.Options{
		Exam: strings.TrimSpace(r.FormValue("exam")),
	})
	if err != nil {
		h.writeGradeError(w, r, err)
		return
	}

	// Archive first: if persisting fails the client gets a clean 500 and the
	// current run stays whatever it was, instead of a half-published result.
	if err := h.archive.SaveRun(run); err != nil {
		slog.Error("archive grading run", "run_id", run.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.current.Commit(run)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        appI18n.Tp(r.Context(), "StudentsGraded", len(run.Order)),
		"run_id":         run.ID,
		"exam":           run.Exam,
		"students":       run.Order,
		"paper_total":    run.PaperTotal,
		"questions":      run.Questions,
		"question_stats": run.Stats,
	})
}

// writeGradeError maps engine errors to HTTP responses. Inference and empty
// input problems are the caller's data, not server faults.
func (h *Handler) writeGradeError(w http.ResponseWriter, r *http.Request, err error) {
	var infErr *schema.InferenceError
	if errors.As(err, &infErr) {
		roles := make([]string, len(infErr.Missing))
		for i, role := range infErr.Missing {
			roles[i] = string(role)
		}
		writeError(w, http.StatusUnprocessableEntity,
			appI18n.Td(r.Context(), "SchemaIncomplete", map[string]any{"Roles": strings.Join(roles, ", ")}))
		return
	}
	var emptyErr *grader.EmptyInputError
	if errors.As(err, &emptyErr) {
		writeError(w, http.StatusUnprocessableEntity,
			appI18n.Td(r.Context(), "EmptyTable", map[string]any{"Table": emptyErr.Table}))
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) handleStudent(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	// Take the snapshot once so the score and paper total always come from
	// the same run, even when a clear or a new commit races the query.
	run, ok := h.current.Run()
	if !ok {
		h.writeLookupError(w, r, name, store.ErrNoRun)
		return
	}
	res, ok := run.Results[name]
	if !ok {
		h.writeLookupError(w, r, name, store.ErrStudentNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":            res.Name,
		"total_score":     res.Score,
		"wrong_questions": res.WrongQuestions,
		"paper_total":     run.PaperTotal,
	})
}

func (h *Handler) handleErrorBook(w http.ResponseWriter, r *http.Request) {
	name := pathName(r)
	rows, err := h.current.MissedQuestionRows(name)
	if err != nil {
		h.writeLookupError(w, r, name, err)
		return
	}
	writeCSVAttachment(w, fmt.Sprintf("%s_errorbook.csv", name), rows)
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	summary, err := h.current.ClassSummary()
	if err != nil {
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoRunCommitted"))
		return
	}
	t := table.Table{Columns: []string{"name", "score"}}
	for _, sc := range summary {
		t.Rows = append(t.Rows, table.Row{
			"name":  table.TextCell(sc.Name),
			"score": table.NumberCell(sc.Score),
		})
	}
	writeCSVAttachment(w, "class_scores.csv", t)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.current.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": appI18n.T(r.Context(), "RunCleared"),
	})
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, store.ErrNoRun):
		writeError(w, http.StatusNotFound, appI18n.T(r.Context(), "NoRunCommitted"))
	case errors.Is(err, store.ErrStudentNotFound):
		writeError(w, http.StatusNotFound,
			appI18n.Td(r.Context(), "StudentNotFound", map[string]any{"Name": name}))
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// uploadedTable reads one multipart file into a Table. JSON uploads are
// recognized by extension; everything else is treated as CSV.
func uploadedTable(r *http.Request, field string) (table.Table, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return table.Table{}, fmt.Errorf("form file %s: %w", field, err)
	}
	defer file.Close()
	return decodeTable(file, header.Filename)
}

func decodeTable(file multipart.File, filename string) (table.Table, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		data, err := io.ReadAll(file)
		if err != nil {
			return table.Table{}, fmt.Errorf("read upload %s: %w", filename, err)
		}
		return table.ReadJSON(data)
	}
	return table.ReadCSV(file)
}

// pathName extracts and unescapes the {name} route parameter; chi leaves
// percent-encoding (common for Chinese student names) in place.
func pathName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if dec, err := url.PathUnescape(name); err == nil {
		name = dec
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeCSVAttachment(w http.ResponseWriter, filename string, t table.Table) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	if err := table.WriteCSV(w, t); err != nil {
		slog.Error("write csv attachment", "file", filename, "error", err)
	}
}
