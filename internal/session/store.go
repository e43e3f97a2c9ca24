// Package session holds completed analyses in memory between requests.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Narayana221/FinanceApp/internal/pipeline"
)

// Analysis is the stored result of one uploaded statement.
type Analysis struct {
	ID           string                    `json:"id"`
	CreatedAt    time.Time                 `json:"created_at"`
	Filename     string                    `json:"filename"`
	Format       string                    `json:"format"`
	Encoding     string                    `json:"encoding"`
	Report       pipeline.Report           `json:"report"`
	Transactions []pipeline.Transaction    `json:"transactions"`
	Summary      pipeline.Summary          `json:"summary"`
	Categories   []pipeline.CategorySpend  `json:"categories"`
	Monthly      []pipeline.MonthlySummary `json:"monthly"`
	Outliers     []pipeline.Outlier        `json:"outliers"`
}

// AnalysisStore persists analyses for later retrieval.
type AnalysisStore interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	List(ctx context.Context) ([]*Analysis, error)
	Delete(ctx context.Context, id string) error
}

// Store is an in-memory implementation of AnalysisStore.
// It is safe for concurrent use. Data is lost on service restart.
type Store struct {
	mu       sync.RWMutex
	analyses map[string]*Analysis
}

// NewStore creates a new in-memory analysis store.
func NewStore() *Store {
	return &Store{
		analyses: make(map[string]*Analysis),
	}
}

// cloneAnalysis copies an analysis including its slices, so neither side
// can reach the other's elements.
func cloneAnalysis(a *Analysis) *Analysis {
	cp := *a
	cp.Report.Rejections = append([]pipeline.Rejection(nil), a.Report.Rejections...)
	cp.Report.Warnings = append([]string(nil), a.Report.Warnings...)
	cp.Transactions = append([]pipeline.Transaction(nil), a.Transactions...)
	cp.Categories = append([]pipeline.CategorySpend(nil), a.Categories...)
	cp.Monthly = append([]pipeline.MonthlySummary(nil), a.Monthly...)
	cp.Outliers = append([]pipeline.Outlier(nil), a.Outliers...)
	return &cp
}

// Save stores or updates an analysis.
func (s *Store) Save(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses[a.ID] = cloneAnalysis(a)

	return nil
}

// Get retrieves an analysis by ID.
func (s *Store) Get(ctx context.Context, id string) (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.analyses[id]
	if !exists {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}

	return cloneAnalysis(a), nil
}

// List returns all analyses, newest first.
func (s *Store) List(ctx context.Context) ([]*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Analysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		result = append(result, cloneAnalysis(a))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Delete removes an analysis by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.analyses[id]; !exists {
		return fmt.Errorf("analysis not found: %s", id)
	}
	delete(s.analyses, id)

	return nil
}

var _ AnalysisStore = (*Store)(nil)
