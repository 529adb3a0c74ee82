package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retailops/account-system/internal/core/domain"
)

const accountCollection = "accounts"

// MongoAccountRepository is the persistence gateway for accounts. Lookups
// exclude soft-deleted records unless the including-deleted variant is used.
type MongoAccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID                    string     `bson:"_id"`
	Username              string     `bson:"username"`
	FullName              string     `bson:"full_name"`
	Email                 string     `bson:"email"`
	Phone                 string     `bson:"phone"`
	Role                  string     `bson:"role"`
	IsDeleted             bool       `bson:"is_deleted"`
	DeletedAt             *time.Time `bson:"deleted_at,omitempty"`
	MustChangePassword    bool       `bson:"must_change_password"`
	LastLoginAt           *time.Time `bson:"last_login_at,omitempty"`
	RefreshToken          string     `bson:"refresh_token,omitempty"`
	RefreshTokenExpiresAt *time.Time `bson:"refresh_token_expires_at,omitempty"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
}

func toDoc(a *domain.Account) accountDoc {
	r := a.Snapshot()
	return accountDoc{
		ID:                    r.ID,
		Username:              r.Username,
		FullName:              r.FullName,
		Email:                 r.Email,
		Phone:                 r.Phone,
		Role:                  string(r.Role),
		IsDeleted:             r.IsDeleted,
		DeletedAt:             r.DeletedAt,
		MustChangePassword:    r.MustChangePassword,
		LastLoginAt:           r.LastLoginAt,
		RefreshToken:          r.RefreshToken,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (d accountDoc) toDomain() *domain.Account {
	return domain.Rehydrate(domain.AccountRecord{
		ID:                    d.ID,
		Username:              d.Username,
		FullName:              d.FullName,
		Email:                 d.Email,
		Phone:                 d.Phone,
		Role:                  domain.Role(d.Role),
		IsDeleted:             d.IsDeleted,
		DeletedAt:             d.DeletedAt,
		MustChangePassword:    d.MustChangePassword,
		LastLoginAt:           d.LastLoginAt,
		RefreshToken:          d.RefreshToken,
		RefreshTokenExpiresAt: d.RefreshTokenExpiresAt,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	})
}

// FindByUsername matches the record regardless of deletion state: the login
// flow needs the deleted account back so the entity guard can reject it, and
// a soft-deleted username still counts as taken.
func (r *MongoAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id, "is_deleted": false})
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email, "is_deleted": false})
}

func (r *MongoAccountRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the uniqueness indexes the registration flow relies on.
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save upserts the full account document keyed by id.
func (r *MongoAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	doc := toDoc(account)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyConflict(err)
		}
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// duplicateKeyConflict maps a unique-index violation to the conflicting
// field's domain error. The server names the violated index in the write
// error message ("index: email_1 dup key: ...").
func duplicateKeyConflict(err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "index: email") {
				return domain.ErrEmailExists
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && strings.Contains(ce.Message, "index: email") {
		return domain.ErrEmailExists
	}
	return domain.ErrUsernameExists
}
