// Package services holds the issue triage workflow: intake validation,
// priority classification, status transitions and role-scoped listing.
package services

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"govconnect-be/classifier"
	"govconnect-be/models"
	"govconnect-be/pkg/apperrors"
	"govconnect-be/repositories"
	"govconnect-be/storage"
)

// MaxImageBytes is the accepted upload size bound.
const MaxImageBytes = 5 << 20

// ImageUpload is the raw uploaded photo handed to intake.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// IntakeInput carries a citizen's submitted report fields.
type IntakeInput struct {
	Title       string
	Description string
	Category    string
	State       string
	Location    string
	Image       *ImageUpload
}

// PublicIssue is the redacted shape served on the unauthenticated feed. It
// carries no reporter data and no link to the uploaded image.
type PublicIssue struct {
	ID        primitive.ObjectID   `json:"id"`
	Title     string               `json:"title"`
	Category  models.IssueCategory `json:"category"`
	State     string               `json:"state"`
	Location  string               `json:"location"`
	Status    models.IssueStatus   `json:"status"`
	Priority  models.IssuePriority `json:"priority"`
	CreatedAt time.Time            `json:"createdAt"`
}

type TriageService struct {
	repo       repositories.IssueRepository
	blobs      storage.BlobStore
	classifier classifier.Classifier
	logger     *zap.Logger
}

func NewTriageService(repo repositories.IssueRepository, blobs storage.BlobStore, cls classifier.Classifier, logger *zap.Logger) *TriageService {
	return &TriageService{repo: repo, blobs: blobs, classifier: cls, logger: logger}
}

// Intake validates a submitted report, stores its photo, classifies its
// priority and persists the issue with status pending. Validation and image
// storage failures abort the whole intake; classification failures never do.
func (s *TriageService) Intake(ctx context.Context, reporterID string, in IntakeInput) (*models.Issue, error) {
	reporterOID, err := primitive.ObjectIDFromHex(reporterID)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &apperrors.ValidationError{Field: "title", Reason: "is required"}
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, &apperrors.ValidationError{Field: "description", Reason: "is required"}
	}
	category, ok := models.ParseCategory(strings.TrimSpace(in.Category))
	if !ok {
		return nil, &apperrors.ValidationError{Field: "category", Reason: "is not a recognized category"}
	}
	state := strings.TrimSpace(in.State)
	if state == "" {
		return nil, &apperrors.ValidationError{Field: "state", Reason: "is required"}
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, &apperrors.ValidationError{Field: "location", Reason: "is required"}
	}

	if in.Image == nil || in.Image.Size == 0 {
		return nil, &apperrors.ValidationError{Field: "image", Reason: "is required"}
	}
	if in.Image.Size > MaxImageBytes {
		return nil, &apperrors.ValidationError{Field: "image", Reason: "exceeds the 5 MiB limit"}
	}
	if !isImage(in.Image.ContentType, in.Image.Filename) {
		return nil, &apperrors.ValidationError{Field: "image", Reason: "must be an image file"}
	}

	locator, err := s.blobs.Save(ctx, in.Image.Filename, in.Image.ContentType, in.Image.Reader, in.Image.Size)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "store image", Err: err}
	}

	priority, err := s.classifier.Classify(ctx, classifier.Input{
		Title:       title,
		Description: description,
		Category:    string(category),
		State:       state,
		Location:    location,
	})
	if err != nil {
		// The fallback wrapper normally absorbs classifier failures; a bare
		// classifier must still never block intake.
		s.logger.Warn("classification failed, defaulting priority to medium", zap.Error(err))
		priority = models.PriorityMedium
	}

	issue := &models.Issue{
		Title:       title,
		Description: description,
		Category:    category,
		State:       state,
		Location:    location,
		ImageURL:    locator,
		Status:      models.StatusPending,
		Priority:    priority,
		ReporterID:  reporterOID,
	}

	created, err := s.repo.Create(ctx, issue)
	if err != nil {
		return nil, err
	}

	s.logger.Info("issue created",
		zap.String("issue_id", created.ID.Hex()),
		zap.String("category", string(created.Category)),
		zap.String("priority", string(created.Priority)))
	return created, nil
}

// Transition advances an issue along the status state machine. Admin only.
func (s *TriageService) Transition(ctx context.Context, issueID string, requested models.IssueStatus, actingRole models.Role) (*models.Issue, error) {
	if actingRole != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	issue, err := s.repo.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(issue.Status, requested) {
		return nil, &apperrors.InvalidTransitionError{From: string(issue.Status), To: string(requested)}
	}
	return s.repo.UpdateStatus(ctx, issueID, requested)
}

// Remove permanently deletes an issue. Admin only, no soft delete.
func (s *TriageService) Remove(ctx context.Context, issueID string, actingRole models.Role) error {
	if actingRole != models.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return s.repo.Delete(ctx, issueID)
}

// ListForCaller returns issues visible to the caller. Citizens only ever see
// their own reports; the filter cannot widen that scope. Admins see all
// issues matching the filter.
func (s *TriageService) ListForCaller(ctx context.Context, ident models.Identity, filter repositories.IssueFilter) ([]models.Issue, error) {
	if ident.Role == models.RoleAdmin {
		return s.repo.ListAll(ctx, filter)
	}
	return s.repo.ListByReporter(ctx, ident.ID)
}

// ListOwn returns the caller's reported issues, newest first.
func (s *TriageService) ListOwn(ctx context.Context, ident models.Identity) ([]models.Issue, error) {
	return s.repo.ListByReporter(ctx, ident.ID)
}

// PublicFeed returns every issue in redacted form for the unauthenticated
// read-only listing.
func (s *TriageService) PublicFeed(ctx context.Context) ([]PublicIssue, error) {
	issues, err := s.repo.ListAll(ctx, repositories.IssueFilter{})
	if err != nil {
		return nil, err
	}
	feed := make([]PublicIssue, 0, len(issues))
	for _, issue := range issues {
		feed = append(feed, PublicIssue{
			ID:        issue.ID,
			Title:     issue.Title,
			Category:  issue.Category,
			State:     issue.State,
			Location:  issue.Location,
			Status:    issue.Status,
			Priority:  issue.Priority,
			CreatedAt: issue.CreatedAt,
		})
	}
	return feed, nil
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

// isImage requires both the declared content type and the file extension to
// look like an image, mirroring the upload filter of the web client's API.
func isImage(contentType, filename string) bool {
	return strings.HasPrefix(contentType, "image/") &&
		imageExtensions[strings.ToLower(filepath.Ext(filename))]
}
