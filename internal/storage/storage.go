// Package storage persists pipeline results and exports them as spreadsheets.
package storage

import (
	"context"

	"github.com/hyperjump/textlens/internal/models"
)

// Store defines run result persistence operations.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, input, textColumn string) (*models.Run, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error)

	// Result operations
	SaveTable(ctx context.Context, runID string, table *models.Table) error
	SaveNeighbors(ctx context.Context, runID string, refIndex int, neighbors []models.Neighbor) error
	SaveTopTerms(ctx context.Context, runID string, index int, terms []models.TermWeight) error
	Neighbors(ctx context.Context, runID string, refIndex int) ([]models.Neighbor, error)
	TopTerms(ctx context.Context, runID string, index int) ([]models.TermWeight, error)

	Close() error
}
