// Package pipeline ties extraction, summarization, history and delivery together.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/synopsis/internal/extract"
	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/internal/notify"
	"github.com/hyperjump/synopsis/internal/storage"
	"github.com/hyperjump/synopsis/internal/textrank"
)

var (
	// ErrInputTooLarge is returned when input exceeds the configured byte limit.
	ErrInputTooLarge = errors.New("input too large")
	// ErrNoStorage is returned when saving is requested without a history store.
	ErrNoStorage = errors.New("summary history is not configured")
	// ErrMailDisabled is returned when mail delivery is requested but mail is disabled.
	ErrMailDisabled = errors.New("mail delivery is disabled")
)

// DefaultParallelism bounds SummarizeFiles when no limit is configured.
const DefaultParallelism = 4

// Service summarizes text and files and optionally stores and mails the result.
type Service struct {
	summarizer    *textrank.Summarizer
	extractor     *extract.Extractor
	store         storage.Storage
	notifier      notify.Notifier
	logger        *zap.Logger
	maxInputBytes int64
	parallelism   int
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStorage enables saving summaries to store.
func WithStorage(store storage.Storage) Option {
	return func(s *Service) { s.store = store }
}

// WithNotifier sets how summaries are mailed.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxInputBytes rejects inputs larger than n bytes. Zero disables the limit.
func WithMaxInputBytes(n int64) Option {
	return func(s *Service) { s.maxInputBytes = n }
}

// WithParallelism bounds how many files SummarizeFiles processes at once.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// New returns a service around summarizer.
func New(summarizer *textrank.Summarizer, opts ...Option) *Service {
	s := &Service{
		summarizer:  summarizer,
		extractor:   extract.NewExtractor(),
		notifier:    notify.NoOpNotifier{},
		logger:      zap.NewNop(),
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Storage returns the history store, or nil when none is configured.
func (s *Service) Storage() storage.Storage {
	return s.store
}

// DefaultRatio returns the ratio used when a request leaves it at zero.
func (s *Service) DefaultRatio() float64 {
	return s.summarizer.Ratio()
}

// SummarizeText summarizes req.Text, then saves and mails the summary as
// requested. When delivery fails after summarizing, the summary is returned
// together with the error.
func (s *Service) SummarizeText(ctx context.Context, req models.SummarizeRequest) (*models.Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkSize(int64(len(req.Text))); err != nil {
		return nil, err
	}
	if req.Save && s.store == nil {
		return nil, ErrNoStorage
	}
	if len(req.Email) > 0 {
		if _, off := s.notifier.(notify.NoOpNotifier); off {
			return nil, ErrMailDisabled
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratio := req.Ratio
	if ratio == 0 {
		ratio = s.summarizer.Ratio()
	}
	start := s.now()
	result, err := s.summarizer.SummarizeDocument(textrank.NewDocument(req.Text, s.summarizer.Tokenizer()), ratio)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	sum := toModel(result, req.Source, s.now().UTC())
	s.logger.Debug("summarized",
		zap.String("source", req.Source),
		zap.Int("sentences", result.Total),
		zap.Int("selected", len(result.Selected)),
		zap.Duration("took", s.now().Sub(start)),
	)

	if req.Save {
		if err := s.store.SaveSummary(ctx, sum); err != nil {
			return sum, fmt.Errorf("save summary: %w", err)
		}
	}
	if len(req.Email) > 0 {
		if err := s.notifier.NotifySummary(ctx, sum, req.Email); err != nil {
			return sum, fmt.Errorf("mail summary: %w", err)
		}
	}
	return sum, nil
}

// SummarizeContent extracts text from content according to ext and summarizes it.
func (s *Service) SummarizeContent(ctx context.Context, content []byte, ext string, req models.SummarizeRequest) (*models.Summary, error) {
	if err := s.checkSize(int64(len(content))); err != nil {
		return nil, err
	}
	text, err := s.extractor.ExtractBytes(content, ext)
	if err != nil {
		return nil, err
	}
	req.Text = text
	return s.SummarizeText(ctx, req)
}

// SummarizeFile summarizes the document at path without saving or mailing it.
func (s *Service) SummarizeFile(ctx context.Context, path string, ratio float64) (*models.Summary, error) {
	return s.SummarizeFileRequest(ctx, path, models.SummarizeRequest{Ratio: ratio})
}

// SummarizeFileRequest summarizes the document at path using req for ratio and
// delivery options. req.Source defaults to path.
func (s *Service) SummarizeFileRequest(ctx context.Context, path string, req models.SummarizeRequest) (*models.Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if err := s.checkSize(info.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if req.Source == "" {
		req.Source = path
	}
	sum, err := s.SummarizeContent(ctx, content, filepath.Ext(path), req)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}

// SummarizeFiles summarizes each path concurrently, at most the configured
// parallelism at a time. Results are in the order of paths. The first failure
// cancels the remaining work.
func (s *Service) SummarizeFiles(ctx context.Context, paths []string, ratio float64) ([]*models.Summary, error) {
	return s.SummarizeFilesRequest(ctx, paths, models.SummarizeRequest{Ratio: ratio})
}

// SummarizeFilesRequest is SummarizeFiles with delivery options applied to every file.
func (s *Service) SummarizeFilesRequest(ctx context.Context, paths []string, req models.SummarizeRequest) ([]*models.Summary, error) {
	results := make([]*models.Summary, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r := req
			r.Source = ""
			sum, err := s.SummarizeFileRequest(gctx, path, r)
			if err != nil {
				return err
			}
			results[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) checkSize(n int64) error {
	if s.maxInputBytes > 0 && n > s.maxInputBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInputTooLarge, n, s.maxInputBytes)
	}
	return nil
}

func toModel(r *textrank.Summary, source string, at time.Time) *models.Summary {
	selected := make([]models.SelectedSentence, len(r.Selected))
	for i, sel := range r.Selected {
		selected[i] = models.SelectedSentence{Index: sel.Index, Text: sel.Text, Score: sel.Score}
	}
	return &models.Summary{
		Source:        source,
		Ratio:         r.Ratio,
		SentenceCount: r.Total,
		Sentences:     selected,
		Text:          r.Text,
		CreatedAt:     at,
	}
}

// OutputFileName returns the name of the summary file written for source.
func OutputFileName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".summary.txt"
}

// WriteOutputFile writes sum.Text to dir/<name>.summary.txt and returns the path.
func WriteOutputFile(dir string, sum *models.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, OutputFileName(sum.Source))
	if err := os.WriteFile(path, []byte(sum.Text+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
