package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/internal/storage"
	"github.com/hyperjump/synopsis/internal/textrank"
	"github.com/hyperjump/synopsis/internal/tokenize"
)

const article = "The cat sat on the mat. The dog chased the cat around the mat. " +
	"Birds sang in the morning. The cat and the dog slept on the mat together. " +
	"It rained in the afternoon."

type memStore struct {
	mu    sync.Mutex
	saved []*models.Summary
	err   error
}

func (m *memStore) SaveSummary(_ context.Context, s *models.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s.ID = fmt.Sprintf("id-%d", len(m.saved)+1)
	m.saved = append(m.saved, s)
	return nil
}

func (m *memStore) GetSummary(_ context.Context, id string) (*models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListSummaries(context.Context, int, int) ([]*models.Summary, error) {
	return m.saved, nil
}

func (m *memStore) DeleteSummary(context.Context, string) error { return nil }

func (m *memStore) CountSummaries(context.Context) (int64, error) {
	return int64(len(m.saved)), nil
}

func (m *memStore) Close() error { return nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (r *recordingNotifier) NotifySummary(_ context.Context, s *models.Summary, to []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.sent == nil {
		r.sent = map[string][]string{}
	}
	r.sent[s.Text] = to
	return nil
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	tok, err := tokenize.New()
	if err != nil {
		t.Fatal(err)
	}
	return New(textrank.NewSummarizer(tok), opts...)
}

func TestSummarizeText(t *testing.T) {
	svc := newService(t)
	sum, err := svc.SummarizeText(context.Background(), models.SummarizeRequest{Text: article, Ratio: 0.4, Source: "inline"})
	if err != nil {
		t.Fatal(err)
	}
	if sum.SentenceCount != 5 {
		t.Errorf("SentenceCount = %d, want 5", sum.SentenceCount)
	}
	if len(sum.Sentences) != 2 {
		t.Fatalf("selected %d sentences, want 2", len(sum.Sentences))
	}
	if sum.Sentences[0].Index >= sum.Sentences[1].Index {
		t.Errorf("sentences not in reading order: %+v", sum.Sentences)
	}
	if sum.Source != "inline" || sum.Ratio != 0.4 || sum.CreatedAt.IsZero() {
		t.Errorf("unexpected metadata: %+v", sum)
	}
	if !strings.Contains(article, sum.Sentences[0].Text) {
		t.Errorf("selected text %q not from the article", sum.Sentences[0].Text)
	}
}

func TestSummarizeText_defaultRatio(t *testing.T) {
	svc := newService(t)
	sum, err := svc.SummarizeText(context.Background(), models.SummarizeRequest{Text: article})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Ratio != textrank.DefaultRatio || len(sum.Sentences) != 1 {
		t.Errorf("ratio %v, %d selected", sum.Ratio, len(sum.Sentences))
	}
}

func TestSummarizeText_errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		svc  *Service
		req  models.SummarizeRequest
		want error
	}{
		{"too large", newService(t, WithMaxInputBytes(10)), models.SummarizeRequest{Text: article}, ErrInputTooLarge},
		{"save without store", newService(t), models.SummarizeRequest{Text: article, Save: true}, ErrNoStorage},
		{"mail disabled", newService(t), models.SummarizeRequest{Text: article, Email: []string{"a@example.com"}}, ErrMailDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.SummarizeText(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := newService(t).SummarizeText(ctx, models.SummarizeRequest{Text: article, Ratio: 2}); err == nil {
		t.Error("expected an error for ratio above one")
	}
}

func TestSummarizeText_saveAndMail(t *testing.T) {
	store := &memStore{}
	mailer := &recordingNotifier{}
	svc := newService(t, WithStorage(store), WithNotifier(mailer))
	sum, err := svc.SummarizeText(context.Background(), models.SummarizeRequest{
		Text:  article,
		Save:  true,
		Email: []string{"reader@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(store.saved) != 1 || sum.ID != "id-1" {
		t.Errorf("saved %d summaries, id %q", len(store.saved), sum.ID)
	}
	if to := mailer.sent[sum.Text]; len(to) != 1 || to[0] != "reader@example.com" {
		t.Errorf("mailed to %v", to)
	}
}

func TestSummarizeText_deliveryFailureKeepsSummary(t *testing.T) {
	mailer := &recordingNotifier{err: errors.New("smtp down")}
	svc := newService(t, WithNotifier(mailer))
	sum, err := svc.SummarizeText(context.Background(), models.SummarizeRequest{Text: article, Email: []string{"a@example.com"}})
	if err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("err = %v", err)
	}
	if sum == nil || sum.Text == "" {
		t.Error("summary should be returned with a delivery error")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSummarizeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "article.txt", strings.ReplaceAll(article, ". ", ".\n"))
	sum, err := newService(t).SummarizeFile(context.Background(), path, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Source != path || sum.SentenceCount != 5 {
		t.Errorf("got source %q, %d sentences", sum.Source, sum.SentenceCount)
	}

	if _, err := newService(t, WithMaxInputBytes(8)).SummarizeFile(context.Background(), path, 0); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("err = %v, want ErrInputTooLarge", err)
	}
	if _, err := newService(t).SummarizeFile(context.Background(), dir, 0); err == nil {
		t.Error("expected an error for a directory")
	}
}

func TestSummarizeFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("doc%d.md", i), article))
	}
	results, err := newService(t, WithParallelism(2)).SummarizeFiles(context.Background(), paths, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Source != paths[i] {
			t.Errorf("result %d source = %q, want %q", i, r.Source, paths[i])
		}
	}

	paths = append(paths, filepath.Join(dir, "missing.txt"))
	if _, err := newService(t).SummarizeFiles(context.Background(), paths, 0.2); err == nil {
		t.Error("expected an error when one file is missing")
	}
}

func TestWriteOutputFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteOutputFile(dir, &models.Summary{Source: "/inbox/report.pdf", Text: "Short."})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "report.summary.txt" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Short.\n" {
		t.Errorf("content = %q", data)
	}
}
