package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	appI18n "github.com/markbook/markbook/internal/i18n"
	"github.com/markbook/markbook/internal/model"
	"github.com/markbook/markbook/internal/store"
)

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.archive.ListExams()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exams": exams})
}

func (h *Handler) handleExamScores(w http.ResponseWriter, r *http.Request) {
	exam := pathName(r)
	scores, err := h.archive.ExamScores(exam)
	if err != nil {
		h.writeExamError(w, r, exam, err)
		return
	}
	avg, err := h.archive.ClassAverage(exam)
	if err != nil {
		h.writeExamError(w, r, exam, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exam":    exam,
		"scores":  scores,
		"average": avg,
	})
}

func (h *Handler) handleExamStats(w http.ResponseWriter, r *http.Request) {
	exam := pathName(r)
	stats, err := h.archive.ExamStats(exam)
	if err != nil {
		h.writeExamError(w, r, exam, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exam":           exam,
		"question_stats": stats,
	})
}

// handleCompareExams accepts {"exams": ["midterm", "final"]} and returns the
// archived score sets side by side.
func (h *Handler) handleCompareExams(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var names []string
	for _, e := range gjson.GetBytes(body, "exams").Array() {
		if s := e.String(); s != "" {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "NoExamsSelected"))
		return
	}

	compared, err := h.archive.CompareExams(names)
	if err != nil {
		if errors.Is(err, store.ErrExamNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exams":  names,
		"scores": compared,
	})
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	exam := pathName(r)
	if err := h.archive.DeleteExam(exam); err != nil {
		h.writeExamError(w, r, exam, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (h *Handler) writeExamError(w http.ResponseWriter, r *http.Request, exam string, err error) {
	if errors.Is(err, store.ErrExamNotFound) {
		writeError(w, http.StatusNotFound,
			appI18n.Td(r.Context(), "ExamNotFound", map[string]any{"Name": exam}))
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
