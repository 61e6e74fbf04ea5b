// Package schema infers which question bank columns carry identifiers,
// answers, point values, and question content. Banks authored by different
// teachers rarely agree on column names, so inference is keyword-driven and
// deliberately pluggable.
package schema

import (
	"fmt"
	"strings"

	"github.com/markbook/markbook/internal/model"
)

// Classifier maps a single column name to a role, or reports no match.
// It is the replaceable inference strategy: the grading engine only ever
// sees the resulting ColumnMap.
type Classifier func(column string) (model.Role, bool)

// Keyword sets per role, matched as substrings of the lower-cased trimmed
// column name. Chinese variants come first: the sheets this tool was built
// for are bilingual at best.
var roleKeywords = []struct {
	role     model.Role
	keywords []string
}{
	{model.RoleIdentifier, []string{"题号", "question", "q_id", "no.", "编号"}},
	{model.RoleAnswer, []string{"答案", "answer", "ans", "key"}},
	{model.RoleScore, []string{"分值", "分数", "得分", "score", "points", "value"}},
	{model.RoleContent, []string{"题目内容", "题干", "content"}},
}

// KeywordClassifier is the default Classifier. The first role whose keyword
// set matches wins; a column matching nothing gets no role.
func KeywordClassifier(column string) (model.Role, bool) {
	c := strings.ToLower(strings.TrimSpace(column))
	if c == "" {
		return "", false
	}
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(c, kw) {
				return rk.role, true
			}
		}
	}
	return "", false
}

// InferenceError reports mandatory column roles that could not be resolved.
type InferenceError struct {
	Missing []model.Role
}

func (e *InferenceError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return fmt.Sprintf("schema inference: unresolved column roles: %s", strings.Join(names, ", "))
}

// Infer classifies the given column names into a ColumnMap using classify
// (KeywordClassifier when nil). The left-most column matching a role wins;
// later matches for an already-resolved role are ignored. If any of the
// mandatory roles (identifier, answer, score) stays unresolved, Infer fails
// with an *InferenceError instead of guessing.
func Infer(columns []string, classify Classifier) (model.ColumnMap, error) {
	if classify == nil {
		classify = KeywordClassifier
	}
	m := model.ColumnMap{}
	for _, col := range columns {
		role, ok := classify(col)
		if !ok {
			continue
		}
		if _, taken := m[role]; taken {
			continue
		}
		m[role] = col
	}
	if missing := m.MissingRoles(); len(missing) > 0 {
		return nil, &InferenceError{Missing: missing}
	}
	return m, nil
}
