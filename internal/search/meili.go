package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/internal/models"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
)

const programsIndex = "programs"

type programDoc struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Duration     int     `json:"duration"`
	UniversityID string  `json:"universityId"`
	University   string  `json:"university,omitempty"`
	CreatedAt    int64   `json:"createdAt"`
}

func toDoc(p *models.Program) programDoc {
	d := programDoc{
		ID:           p.ID.Hex(),
		Title:        sanitize.Inline(p.Title),
		Description:  sanitize.Inline(p.Description),
		Price:        p.Price,
		Duration:     p.Duration,
		UniversityID: p.UniversityID.Hex(),
		CreatedAt:    p.CreatedAt.Unix(),
	}
	if p.University != nil {
		d.University = p.University.Name
	}
	return d
}

// MeiliProgramIndex indexes programs in Meilisearch.
type MeiliProgramIndex struct {
	client meilisearch.ServiceManager
}

func NewMeiliProgramIndex(client meilisearch.ServiceManager) *MeiliProgramIndex {
	return &MeiliProgramIndex{client: client}
}

// New returns the Meilisearch index when a host is configured and the no-op index otherwise.
func New(cfg config.SearchConfig) ProgramIndex {
	if cfg.Host == "" {
		return NopProgramIndex{}
	}
	idx := NewMeiliProgramIndex(meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey)))
	idx.configure()
	return idx
}

// Ping backs the readiness check.
func (m *MeiliProgramIndex) Ping(_ context.Context) error {
	if !m.client.IsHealthy() {
		return fmt.Errorf("meilisearch unavailable")
	}
	return nil
}

func (m *MeiliProgramIndex) configure() {
	filterable := []any{"universityId"}
	if _, err := m.client.Index(programsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		logger.Warnf("meilisearch: update filterable attributes: %v", err)
	}
	sortable := []string{"createdAt", "price"}
	if _, err := m.client.Index(programsIndex).UpdateSortableAttributes(&sortable); err != nil {
		logger.Warnf("meilisearch: update sortable attributes: %v", err)
	}
}

func (m *MeiliProgramIndex) Index(_ context.Context, p *models.Program) error {
	pk := "id"
	task, err := m.client.Index(programsIndex).AddDocuments([]programDoc{toDoc(p)}, &pk)
	if err != nil {
		return fmt.Errorf("index program %s: %w", p.ID.Hex(), err)
	}
	logger.Debugw("program indexed", logger.Fields{"program": p.ID.Hex(), "task": task.TaskUID})
	return nil
}

func (m *MeiliProgramIndex) Remove(_ context.Context, id string) error {
	if _, err := m.client.Index(programsIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("remove program %s: %w", id, err)
	}
	return nil
}

func (m *MeiliProgramIndex) Search(_ context.Context, q string, limit int) ([]string, error) {
	raw, err := m.client.Index(programsIndex).SearchRaw(q, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	var res struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
