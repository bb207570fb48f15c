// Package storage defines the persistence interface for summary history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/synopsis/internal/models"
)

// ErrNotFound is returned when no summary has the requested ID.
var ErrNotFound = errors.New("summary not found")

// Storage defines summary persistence operations.
type Storage interface {
	// SaveSummary inserts s, assigning an ID and CreatedAt when unset.
	SaveSummary(ctx context.Context, s *models.Summary) error
	GetSummary(ctx context.Context, id string) (*models.Summary, error)
	// ListSummaries returns summaries newest first.
	ListSummaries(ctx context.Context, offset, limit int) ([]*models.Summary, error)
	DeleteSummary(ctx context.Context, id string) error
	CountSummaries(ctx context.Context) (int64, error)

	Close() error
}
