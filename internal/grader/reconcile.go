package grader

import "log/slog"

// resolver pairs question bank identifiers with student sheet columns.
// Banks and scanned sheets are usually authored independently ("Q1" vs "QQ1"
// vs "1"), so after an exact name match fails we fall back to matching the
// maximal digit run extracted from each name.
type resolver struct {
	exact    map[string]bool
	byDigits map[string]string // digit run -> first student column with that run
}

// newResolver indexes the student sheet's columns. Built once per grading
// run, not per student.
func newResolver(columns []string) *resolver {
	r := &resolver{
		exact:    make(map[string]bool, len(columns)),
		byDigits: make(map[string]string),
	}
	for _, col := range columns {
		r.exact[col] = true
		if d := digitRun(col); d != "" {
			if _, taken := r.byDigits[d]; !taken {
				r.byDigits[d] = col
			}
		}
	}
	return r
}

// column returns the student sheet column holding the answer for the given
// question identifier, or ok=false when the student has no matching column
// (the answer is then treated as missing and the question marked wrong).
func (r *resolver) column(questionID string) (string, bool) {
	if r.exact[questionID] {
		return questionID, true
	}
	d := digitRun(questionID)
	if d == "" {
		return "", false
	}
	col, ok := r.byDigits[d]
	return col, ok
}

// digitRun extracts every digit character of s in order ("Q12" -> "12").
func digitRun(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b = append(b, s[i])
		}
	}
	return string(b)
}

// warnCollisions logs question identifiers that reconcile against the same
// student column through the digit fallback. Grading proceeds anyway; the
// collision is a data authoring problem the teacher should hear about.
func warnCollisions(questionIDs []string, r *resolver) {
	claimed := map[string]string{} // resolved column -> first claiming question
	for _, id := range questionIDs {
		if r.exact[id] {
			continue
		}
		col, ok := r.column(id)
		if !ok {
			continue
		}
		if first, dup := claimed[col]; dup {
			slog.Warn("question identifiers share a student column",
				"column", col, "question", id, "conflicts_with", first)
			continue
		}
		claimed[col] = id
	}
}
