package manifest

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"serialsync/internal/models"
)

func testPublication() *models.Publication {
	return &models.Publication{
		IndexURL: "https://flibusta.example/s/42",
		Title:    "Сага",
		Tags:     models.NewTagSet("Фэнтези", "Попаданцы"),
	}
}

func TestAggregate_Narrative(t *testing.T) {
	plan := models.FetchPlan{
		{SourceRef: "/b/2", OrderLabel: "2.", Title: "Вторая", Annotation: "Про вторую."},
		{SourceRef: "/b/1", OrderLabel: "1.", Title: "Первая"},
	}
	results := []models.FetchResult{
		{SourceRef: "/b/2", Path: "Сага/2.epub"},
		{SourceRef: "/b/1", Path: "Сага/1.epub"},
	}

	m := Aggregate(testPublication(), plan, results, "ru")

	want := "2. - Вторая\n\nПро вторую.\n\n1. - Первая\n\n"
	if m.Narrative != want {
		t.Errorf("Narrative = %q, want %q", m.Narrative, want)
	}

	if !reflect.DeepEqual(m.Files, []string{"Сага/2.epub", "Сага/1.epub"}) {
		t.Errorf("Files = %v", m.Files)
	}

	if m.Title != "Сага" || m.Language != "ru" || m.SourceURL != "https://flibusta.example/s/42" {
		t.Errorf("Unexpected header fields: %+v", m)
	}

	if !reflect.DeepEqual(m.Tags, []string{"Фэнтези", "Попаданцы"}) {
		t.Errorf("Tags = %v", m.Tags)
	}
}

func TestAggregate_DeduplicatesAnnotations(t *testing.T) {
	shared := "Общая аннотация цикла."
	plan := models.FetchPlan{
		{SourceRef: "/b/1", OrderLabel: "1", Title: "A", Annotation: shared},
		{SourceRef: "/b/2", OrderLabel: "2", Title: "B", Annotation: shared},
		{SourceRef: "/b/3", OrderLabel: "3", Title: "C", Annotation: shared + " "},
	}
	results := []models.FetchResult{{Path: "1"}, {Path: "2"}, {Path: "3"}}

	m := Aggregate(testPublication(), plan, results, "ru")

	// The third annotation differs by a trailing space and contains the shared text,
	// but it is not itself a substring of the narrative, so it is appended.
	if n := strings.Count(m.Narrative, shared+"\n\n"); n != 1 {
		t.Errorf("Expected shared annotation once, found %d times in %q", n, m.Narrative)
	}

	if !strings.Contains(m.Narrative, "3 - C\n\n"+shared+" \n\n") {
		t.Errorf("Expected whitespace variant to be kept verbatim: %q", m.Narrative)
	}
}

func TestAggregate_AnnotationAlreadyInTitles(t *testing.T) {
	plan := models.FetchPlan{
		{SourceRef: "/b/1", OrderLabel: "1", Title: "Пролог", Annotation: "Пролог"},
	}

	m := Aggregate(testPublication(), plan, []models.FetchResult{{Path: "1"}}, "ru")

	if m.Narrative != "1 - Пролог\n\n" {
		t.Errorf("Narrative = %q", m.Narrative)
	}
}

func TestAggregate_SkipsAbsences(t *testing.T) {
	plan := models.FetchPlan{
		{SourceRef: "/b/1", OrderLabel: "1", Title: "A", Annotation: "aa"},
		{SourceRef: "/b/2", OrderLabel: "2", Title: "B", Annotation: "bb"},
		{SourceRef: "/b/3", OrderLabel: "3", Title: "C"},
	}
	results := []models.FetchResult{
		{SourceRef: "/b/1", Path: "1.epub"},
		{SourceRef: "/b/2", Err: errors.New("timeout")},
		{SourceRef: "/b/3", Path: "3.epub"},
	}

	m := Aggregate(testPublication(), plan, results, "ru")

	if strings.Contains(m.Narrative, "B") || strings.Contains(m.Narrative, "bb") {
		t.Errorf("Failed part leaked into narrative: %q", m.Narrative)
	}

	if !reflect.DeepEqual(m.Files, []string{"1.epub", "3.epub"}) {
		t.Errorf("Files = %v", m.Files)
	}
}

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(testPublication(), nil, nil, "ru")

	if m.Narrative != "" || len(m.Files) != 0 {
		t.Errorf("Expected empty manifest, got %+v", m)
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	m := models.Manifest{
		Title:     "Сага",
		Narrative: "1 - A\n\nтекст\n\n",
		Language:  "ru",
		SourceURL: "https://flibusta.example/s/42",
		Tags:      []string{"Фэнтези"},
		Files:     []string{"Сага/1.epub"},
	}

	if err := Write(path, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if !reflect.DeepEqual(got, m) {
		t.Errorf("Read() = %+v, want %+v", got, m)
	}
}
