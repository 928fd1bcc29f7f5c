package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"govconnect-be/classifier"
	"govconnect-be/models"
	"govconnect-be/pkg/apperrors"
	"govconnect-be/repositories"
	"govconnect-be/storage"
)

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, classifier.Input) (models.IssuePriority, error) {
	return "", errors.New("backend unreachable")
}

type failingBlobStore struct{}

func (failingBlobStore) Save(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", errors.New("bucket unavailable")
}

type testEnv struct {
	repo  *repositories.MemoryIssueRepository
	blobs *storage.MemoryStore
	svc   *TriageService
}

func newTestEnv(cls classifier.Classifier) *testEnv {
	repo := repositories.NewMemoryIssueRepository()
	blobs := storage.NewMemoryStore()
	return &testEnv{
		repo:  repo,
		blobs: blobs,
		svc:   NewTriageService(repo, blobs, cls, zap.NewNop()),
	}
}

func validImage() *ImageUpload {
	data := []byte("fake jpeg bytes")
	return &ImageUpload{
		Filename:    "pothole.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}
}

func validInput() IntakeInput {
	return IntakeInput{
		Title:       "Pothole",
		Description: "Large pothole near bus stop",
		Category:    "roads",
		State:       "Delhi",
		Location:    "MG Road",
		Image:       validImage(),
	}
}

func TestIntakeCreatesPendingIssue(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityHigh))
	reporter := primitive.NewObjectID().Hex()

	issue, err := env.svc.Intake(context.Background(), reporter, validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	if issue.Status != models.StatusPending {
		t.Errorf("Status = %q, want pending", issue.Status)
	}
	if issue.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", issue.Priority)
	}
	if issue.ReporterID.Hex() != reporter {
		t.Errorf("ReporterID = %q, want %q", issue.ReporterID.Hex(), reporter)
	}
	if issue.ImageURL == "" {
		t.Error("expected an image locator")
	}
	if _, ok := env.blobs.Get(issue.ImageURL); !ok {
		t.Error("expected the image to be stored under its locator")
	}
}

func TestIntakeClassifierFailureFallsBackToMedium(t *testing.T) {
	// With the fallback wrapper, the way the service is wired in production.
	env := newTestEnv(classifier.WithFallback(failingClassifier{}, classifier.NewStatic(models.PriorityMedium), zap.NewNop()))

	issue, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	if issue.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", issue.Priority)
	}
}

func TestIntakeBareFailingClassifierStillCreatesIssue(t *testing.T) {
	env := newTestEnv(failingClassifier{})

	issue, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	if issue.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", issue.Priority)
	}
}

func TestIntakeValidationNamesFirstOffendingField(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))

	cases := []struct {
		name   string
		mutate func(*IntakeInput)
		field  string
	}{
		{"missing title", func(in *IntakeInput) { in.Title = "  " }, "title"},
		{"missing description", func(in *IntakeInput) { in.Description = "" }, "description"},
		{"unknown category", func(in *IntakeInput) { in.Category = "potholes" }, "category"},
		{"missing state", func(in *IntakeInput) { in.State = "" }, "state"},
		{"missing location", func(in *IntakeInput) { in.Location = "" }, "location"},
		{"missing image", func(in *IntakeInput) { in.Image = nil }, "image"},
		{"oversized image", func(in *IntakeInput) { in.Image.Size = MaxImageBytes + 1 }, "image"},
		{"non-image upload", func(in *IntakeInput) {
			in.Image.Filename = "notes.txt"
			in.Image.ContentType = "text/plain"
		}, "image"},
	}

	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)

		_, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), in)
		var ve *apperrors.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Errorf("%s: field = %q, want %q", tc.name, ve.Field, tc.field)
		}
	}

	// Nothing may be persisted by rejected intakes.
	issues, err := env.repo.ListAll(context.Background(), repositories.IssueFilter{})
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("repository holds %d issues after rejected intakes, want 0", len(issues))
	}
	if env.blobs.Len() != 0 {
		t.Errorf("blob store holds %d blobs after rejected intakes, want 0", env.blobs.Len())
	}
}

func TestIntakeImageStorageFailureAbortsIntake(t *testing.T) {
	repo := repositories.NewMemoryIssueRepository()
	svc := NewTriageService(repo, failingBlobStore{}, classifier.NewStatic(models.PriorityMedium), zap.NewNop())

	_, err := svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	var se *apperrors.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StorageError", err)
	}

	issues, err := repo.ListAll(context.Background(), repositories.IssueFilter{})
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("repository holds %d issues after failed image storage, want 0", len(issues))
	}
}

func TestTransitionStateMachine(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))
	issue, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	id := issue.ID.Hex()

	// pending -> resolved must be rejected.
	_, err = env.svc.Transition(context.Background(), id, models.StatusResolved, models.RoleAdmin)
	var te *apperrors.InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("pending->resolved err = %v, want InvalidTransitionError", err)
	}

	// The legal sequence always succeeds.
	for _, next := range []models.IssueStatus{models.StatusInProgress, models.StatusResolved, models.StatusInProgress} {
		updated, err := env.svc.Transition(context.Background(), id, next, models.RoleAdmin)
		if err != nil {
			t.Fatalf("Transition to %q error: %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("Status = %q, want %q", updated.Status, next)
		}
	}
}

func TestTransitionForbiddenForCitizens(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))
	issue, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}

	_, err = env.svc.Transition(context.Background(), issue.ID.Hex(), models.StatusInProgress, models.RoleCitizen)
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestTransitionNotFound(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))

	_, err := env.svc.Transition(context.Background(), primitive.NewObjectID().Hex(), models.StatusInProgress, models.RoleAdmin)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))
	issue, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput())
	if err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	id := issue.ID.Hex()

	if err := env.svc.Remove(context.Background(), id, models.RoleCitizen); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("citizen Remove err = %v, want ErrForbidden", err)
	}
	if err := env.svc.Remove(context.Background(), id, models.RoleAdmin); err != nil {
		t.Fatalf("admin Remove error: %v", err)
	}
	if err := env.svc.Remove(context.Background(), id, models.RoleAdmin); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestListForCallerScopesCitizensToOwnIssues(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))
	alice := primitive.NewObjectID().Hex()
	bob := primitive.NewObjectID().Hex()

	if _, err := env.svc.Intake(context.Background(), alice, validInput()); err != nil {
		t.Fatalf("Intake error: %v", err)
	}
	other := validInput()
	other.Title = "Broken streetlight"
	other.Category = "streetlights"
	if _, err := env.svc.Intake(context.Background(), bob, other); err != nil {
		t.Fatalf("Intake error: %v", err)
	}

	// A citizen's filters cannot widen their scope.
	issues, err := env.svc.ListForCaller(context.Background(),
		models.Identity{ID: alice, Role: models.RoleCitizen},
		repositories.IssueFilter{Category: "streetlights", Search: "streetlight"})
	if err != nil {
		t.Fatalf("ListForCaller error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("len = %d, want 1", len(issues))
	}
	if issues[0].ReporterID.Hex() != alice {
		t.Errorf("citizen received someone else's issue (reporter %s)", issues[0].ReporterID.Hex())
	}

	// Admins see everything.
	all, err := env.svc.ListForCaller(context.Background(),
		models.Identity{ID: "ignored", Role: models.RoleAdmin},
		repositories.IssueFilter{})
	if err != nil {
		t.Fatalf("ListForCaller error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin len = %d, want 2", len(all))
	}
}

func TestPublicFeedRedactsReporterAndImage(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityLow))
	if _, err := env.svc.Intake(context.Background(), primitive.NewObjectID().Hex(), validInput()); err != nil {
		t.Fatalf("Intake error: %v", err)
	}

	feed, err := env.svc.PublicFeed(context.Background())
	if err != nil {
		t.Fatalf("PublicFeed error: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("len = %d, want 1", len(feed))
	}
	entry := feed[0]
	if entry.Title != "Pothole" || entry.Status != models.StatusPending || entry.Priority != models.PriorityLow {
		t.Errorf("unexpected feed entry: %+v", entry)
	}
}

func TestIntakeRejectsInvalidReporterID(t *testing.T) {
	env := newTestEnv(classifier.NewStatic(models.PriorityMedium))

	_, err := env.svc.Intake(context.Background(), "not-a-hex-id", validInput())
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}
