package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountStore is the credential store. Lookups return (nil, nil) when no
// account matches.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByStudentCode(ctx context.Context, code string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoAccountStore struct {
	collection *mongo.Collection
}

// NewAccountStore builds the MongoDB-backed credential store over the
// accounts collection.
func NewAccountStore(db *mongo.Database) AccountStore {
	return &mongoAccountStore{collection: db.Collection("accounts")}
}

func (r *mongoAccountStore) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var account Account
	err := r.collection.FindOne(ctx, filter).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *mongoAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoAccountStore) FindByStudentCode(ctx context.Context, code string) (*Account, error) {
	return r.findOne(ctx, bson.M{"student_code": code})
}

func (r *mongoAccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

// Create inserts the account. The unique indexes on email and student code
// are the enforcement point against concurrent duplicate registrations, so
// a write-time duplicate surfaces as a conflict rather than a crash.
func (r *mongoAccountStore) Create(ctx context.Context, account *Account) error {
	_, err := r.collection.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *mongoAccountStore) Update(ctx context.Context, account *Account) error {
	update := bson.M{"$set": bson.M{
		"name":           account.Name,
		"password_hash":  account.PasswordHash,
		"role":           account.Role,
		"email_verified": account.EmailVerified,
		"updated_at":     account.UpdatedAt,
	}}
	res, err := r.collection.UpdateByID(ctx, account.ID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *mongoAccountStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
