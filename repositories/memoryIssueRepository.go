package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"govconnect-be/models"
	"govconnect-be/pkg/apperrors"
)

// MemoryIssueRepository holds issues in memory. Suitable for dev/testing.
// Lists are returned newest-first by insertion order, matching the mongo
// implementation's createdAt sort.
type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[string]*models.Issue
	order  []string
}

func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{issues: make(map[string]*models.Issue)}
}

func (r *MemoryIssueRepository) Create(_ context.Context, issue *models.Issue) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	issue.ID = primitive.NewObjectID()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	cp := *issue
	id := issue.ID.Hex()
	r.issues[id] = &cp
	r.order = append(r.order, id)
	return issue, nil
}

func (r *MemoryIssueRepository) FindByID(_ context.Context, id string) (*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *issue
	return &cp, nil
}

func (r *MemoryIssueRepository) ListByReporter(_ context.Context, reporterID string) ([]models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Issue{}
	for i := len(r.order) - 1; i >= 0; i-- {
		issue := r.issues[r.order[i]]
		if issue.ReporterID.Hex() == reporterID {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *MemoryIssueRepository) ListAll(_ context.Context, filter IssueFilter) ([]models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Issue{}
	for i := len(r.order) - 1; i >= 0; i-- {
		issue := r.issues[r.order[i]]
		if filter.Status != "" && string(issue.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && string(issue.Category) != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesSearch(issue, filter.Search) {
			continue
		}
		out = append(out, *issue)
	}
	return out, nil
}

func matchesSearch(issue *models.Issue, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{issue.Title, issue.Location, issue.State} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (r *MemoryIssueRepository) UpdateStatus(_ context.Context, id string, status models.IssueStatus) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	issue.Status = status
	issue.UpdatedAt = time.Now()
	cp := *issue
	return &cp, nil
}

func (r *MemoryIssueRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issues[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.issues, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
