package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"govconnect-be/models"
	"govconnect-be/pkg/apperrors"
)

// IssueFilter narrows ListAll. Empty fields are ignored. Search matches
// title, location and state as a case-insensitive substring.
type IssueFilter struct {
	Status   string
	Category string
	Search   string
}

// IssueRepository is the persistence boundary for issue records. It does not
// enforce transition legality; that is the triage service's responsibility.
type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	ListByReporter(ctx context.Context, reporterID string) ([]models.Issue, error)
	ListAll(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	UpdateStatus(ctx context.Context, id string, status models.IssueStatus) (*models.Issue, error)
	Delete(ctx context.Context, id string) error
}

// MongoIssueRepository stores issues in the "issues" collection.
type MongoIssueRepository struct {
	collection *mongo.Collection
}

func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{collection: db.Collection("issues")}
}

func (r *MongoIssueRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	now := time.Now()
	issue.ID = primitive.NewObjectID()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, issue); err != nil {
		return nil, &apperrors.StorageError{Op: "insert issue", Err: err}
	}
	return issue, nil
}

func (r *MongoIssueRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	var issue models.Issue
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, &apperrors.StorageError{Op: "find issue", Err: err}
	}
	return &issue, nil
}

func (r *MongoIssueRepository) ListByReporter(ctx context.Context, reporterID string) ([]models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(reporterID)
	if err != nil {
		return []models.Issue{}, nil
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"reporterId": oid}, findOptions)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list issues by reporter", Err: err}
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, &apperrors.StorageError{Op: "decode issues", Err: err}
	}
	return issues, nil
}

func (r *MongoIssueRepository) ListAll(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"location": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"state": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "list issues", Err: err}
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, &apperrors.StorageError{Op: "decode issues", Err: err}
	}
	return issues, nil
}

func (r *MongoIssueRepository) UpdateStatus(ctx context.Context, id string, status models.IssueStatus) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, &apperrors.StorageError{Op: "update issue status", Err: err}
	}
	return &issue, nil
}

func (r *MongoIssueRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return &apperrors.StorageError{Op: "delete issue", Err: err}
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
