package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Markbook" {
		t.Errorf("T(AppTitle) = %q, want 'Markbook'", got)
	}

	got = T(ctx, "NoRunCommitted")
	if got != "No grading run has been committed yet." {
		t.Errorf("T(NoRunCommitted) = %q", got)
	}
}

func TestTranslateChinese(t *testing.T) {
	ctx := initLang(t, "zh")

	got := T(ctx, "AppTitle")
	if got != "错题本" {
		t.Errorf("T(AppTitle) = %q, want '错题本'", got)
	}

	got = T(ctx, "NoRunCommitted")
	if got != "尚未有批改记录。" {
		t.Errorf("T(NoRunCommitted) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "StudentsGraded", 1)
	if got1 != "1 student graded." {
		t.Errorf("Tp(StudentsGraded, 1) = %q, want '1 student graded.'", got1)
	}

	got5 := Tp(ctx, "StudentsGraded", 5)
	if got5 != "5 students graded." {
		t.Errorf("Tp(StudentsGraded, 5) = %q, want '5 students graded.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "StudentNotFound", map[string]any{"Name": "Alice"})
	if got != "No record for student Alice in the current run." {
		t.Errorf("Td(StudentNotFound, Name=Alice) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
