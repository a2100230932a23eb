package search

import (
	"context"
	"errors"

	"github.com/campusnet/campusnet/backend/go-services/internal/models"
)

// ErrDisabled is returned by Search when no search backend is configured.
var ErrDisabled = errors.New("search disabled")

// ProgramIndex keeps a full-text index of programs.
type ProgramIndex interface {
	Index(ctx context.Context, p *models.Program) error
	Remove(ctx context.Context, id string) error
	// Search returns matching program ids, best match first.
	Search(ctx context.Context, q string, limit int) ([]string, error)
}

// NopProgramIndex is used when MEILISEARCH_HOST is unset.
type NopProgramIndex struct{}

func (NopProgramIndex) Index(context.Context, *models.Program) error { return nil }

func (NopProgramIndex) Remove(context.Context, string) error { return nil }

func (NopProgramIndex) Search(context.Context, string, int) ([]string, error) {
	return nil, ErrDisabled
}
