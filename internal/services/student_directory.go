package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/vikas-backend/internal/models"
	"github.com/AnshRaj112/vikas-backend/pkg/rank"
)

const studentsCollection = "students"

// caseInsensitive matches usernames and emails regardless of case. Records
// written before normalization keep the casing they were registered with.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// StudentStore is the persistence boundary of the student directory.
type StudentStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	// ExistsByUsernameOrEmail is a fast pre-check; Insert is the authority on uniqueness.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// Insert stores s and sets s.ID. Returns ErrDuplicateIdentity on a unique index violation.
	Insert(ctx context.Context, s *models.Student) error
	// ApplyQuizResult adds rpEarned to the student's rp, recomputes the tier and
	// appends quizName to completedQuizzes.
	ApplyQuizResult(ctx context.Context, id, quizName string, rpEarned int) (*models.Student, error)
	SetProfilePicture(ctx context.Context, id, url string) error
	AddWatchedVideo(ctx context.Context, id, videoID string) error
}

// MongoStudentStore implements StudentStore on a MongoDB collection.
type MongoStudentStore struct {
	col *mongo.Collection
}

func NewMongoStudentStore(db *mongo.Database) *MongoStudentStore {
	return &MongoStudentStore{col: db.Collection(studentsCollection)}
}

// EnsureStudentIndexes creates the unique, case-insensitive username and email indexes.
// Called on startup from main after Mongo has connected.
func (s *MongoStudentStore) EnsureStudentIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_username_ci").SetUnique(true).SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email_ci").SetUnique(true).SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "rp", Value: -1}},
			Options: options.Index().SetName("idx_rp"),
		},
	}
	_, err := s.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStudentStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Student, error) {
	var st models.Student
	err := s.col.FindOne(ctx, filter, opts...).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MongoStudentStore) FindByUsername(ctx context.Context, username string) (*models.Student, error) {
	return s.findOne(ctx, bson.M{"username": username}, options.FindOne().SetCollation(caseInsensitive))
}

func (s *MongoStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStudentStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	n, err := s.col.CountDocuments(ctx, filter, options.Count().SetLimit(1).SetCollation(caseInsensitive))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStudentStore) Insert(ctx context.Context, st *models.Student) error {
	res, err := s.col.InsertOne(ctx, st)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateIdentity
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		st.ID = oid
	}
	return nil
}

func (s *MongoStudentStore) ApplyQuizResult(ctx context.Context, id, quizName string, rpEarned int) (*models.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc":  bson.M{"rp": rpEarned},
		"$push": bson.M{"completedQuizzes": quizName},
	}
	var st models.Student
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Tier follows rp; a concurrent increment may land between the two writes,
	// so only move the tier if rp still matches what we computed from.
	tier := rank.GetTier(st.RP)
	if tier != st.Tier {
		_, err = s.col.UpdateOne(ctx,
			bson.M{"_id": oid, "rp": st.RP},
			bson.M{"$set": bson.M{"tier": tier}},
		)
		if err != nil {
			return nil, fmt.Errorf("update tier: %w", err)
		}
		st.Tier = tier
	}
	return &st, nil
}

func (s *MongoStudentStore) SetProfilePicture(ctx context.Context, id, url string) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"profilePicture": url}})
}

func (s *MongoStudentStore) AddWatchedVideo(ctx context.Context, id, videoID string) error {
	return s.updateByID(ctx, id, bson.M{"$addToSet": bson.M{"watchedVideos": videoID}})
}

func (s *MongoStudentStore) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
