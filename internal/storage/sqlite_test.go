package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/synopsis/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sum := &models.Summary{
		Source:        "article.txt",
		Ratio:         0.3,
		SentenceCount: 10,
		Sentences: []models.SelectedSentence{
			{Index: 2, Text: "Cats purr.", Score: 1.5},
			{Index: 6, Text: "Dogs bark.", Score: 1.25},
		},
		Text: "Cats purr. Dogs bark.",
	}
	if err := store.SaveSummary(ctx, sum); err != nil {
		t.Fatal(err)
	}
	if sum.ID == "" {
		t.Error("ID should be assigned")
	}
	if sum.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetSummary(ctx, sum.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "article.txt" || got.Text != sum.Text || got.SentenceCount != 10 || got.Ratio != 0.3 {
		t.Errorf("got %+v", got)
	}
	if len(got.Sentences) != 2 || got.Sentences[1].Index != 6 || got.Sentences[0].Score != 1.5 {
		t.Errorf("sentences: got %+v", got.Sentences)
	}

	if err := store.DeleteSummary(ctx, sum.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSummary(ctx, sum.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSummary after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSummary(ctx, sum.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		sum := &models.Summary{ID: id, Ratio: 0.2, Text: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.SaveSummary(ctx, sum); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListSummaries(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
		t.Fatalf("unexpected order: %v", ids(list))
	}

	page, err := store.ListSummaries(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("page: got %v", ids(page))
	}
}

func TestSQLiteStorage_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountSummaries(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountSummaries: %v, %d", err, n)
	}
	_ = store.SaveSummary(ctx, &models.Summary{Text: "x", Ratio: 0.2})
	_ = store.SaveSummary(ctx, &models.Summary{Text: "y", Ratio: 0.2})
	n, _ = store.CountSummaries(ctx)
	if n != 2 {
		t.Errorf("expected 2 summaries, got %d", n)
	}
}

func TestSQLiteStorage_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.SaveSummary(ctx, &models.Summary{ID: "dup", Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSummary(ctx, &models.Summary{ID: "dup", Text: "y"}); err == nil {
		t.Error("expected an error for a duplicate ID")
	}
}

func ids(list []*models.Summary) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
