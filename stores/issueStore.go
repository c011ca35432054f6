package stores

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"briddhi-be/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// TypeCount is one bucket of the analytics aggregations.
type TypeCount struct {
	Name  string `bson:"name" json:"name"`
	Value int64  `bson:"value" json:"value"`
}

// IssueStore persists issue records. Every operation is a single-document
// read or read-modify-write; there is no cross-issue invariant.
type IssueStore interface {
	Create(ctx context.Context, issue models.Issue) (models.Issue, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Issue, error)
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Issue, error)
	ListAll(ctx context.Context) ([]models.Issue, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error)
	CountsByType(ctx context.Context) ([]TypeCount, error)
	CountsByStatus(ctx context.Context) ([]TypeCount, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// MongoIssueStore is the production IssueStore backed by a Mongo collection.
type MongoIssueStore struct {
	col *mongo.Collection
}

func NewMongoIssueStore(col *mongo.Collection) *MongoIssueStore {
	return &MongoIssueStore{col: col}
}

// EnsureIssueIndexes creates the 2dsphere index on location. Nothing queries
// it yet; it exists so proximity queries can land without a migration.
func EnsureIssueIndexes(col *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	}

	_, err := col.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (s *MongoIssueStore) Create(ctx context.Context, issue models.Issue) (models.Issue, error) {
	issue.ID = primitive.NewObjectID()
	issue.CreatedAt = time.Now()

	if _, err := s.col.InsertOne(ctx, issue); err != nil {
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *MongoIssueStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	var issue models.Issue
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *MongoIssueStore) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.col.Find(ctx, bson.M{"reportedBy": owner}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *MongoIssueStore) ListAll(ctx context.Context) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.col.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// UpdateStatus sets status and nothing else. Concurrent updates resolve as
// last write wins.
func (s *MongoIssueStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus) (models.Issue, error) {
	updateOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := s.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		updateOptions,
	).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return issue, nil
}

func (s *MongoIssueStore) CountsByType(ctx context.Context) ([]TypeCount, error) {
	return s.groupCounts(ctx, "$type")
}

func (s *MongoIssueStore) CountsByStatus(ctx context.Context) ([]TypeCount, error) {
	return s.groupCounts(ctx, "$status")
}

func (s *MongoIssueStore) groupCounts(ctx context.Context, field string) ([]TypeCount, error) {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   field,
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$project": bson.M{
				"name":  "$_id",
				"value": "$count",
				"_id":   0,
			},
		},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []TypeCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *MongoIssueStore) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{
		"createdAt": bson.M{
			"$gte": from,
			"$lt":  to,
		},
	})
}
