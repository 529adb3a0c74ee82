package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const credentialCollection = "credentials"

// MongoCredentialStore keeps one secret hash per account, keyed by account
// id. It backs the bcrypt credential verifier.
type MongoCredentialStore struct {
	coll *mongo.Collection
}

func NewCredentialStore(db *mongo.Database) *MongoCredentialStore {
	return &MongoCredentialStore{coll: db.Collection(credentialCollection)}
}

type credentialDoc struct {
	AccountID  string    `bson:"_id"`
	SecretHash string    `bson:"secret_hash"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (s *MongoCredentialStore) HashByAccountID(ctx context.Context, accountID string) (string, error) {
	var doc credentialDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": accountID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", fmt.Errorf("no credential for account %s", accountID)
		}
		return "", fmt.Errorf("find credential: %w", err)
	}
	return doc.SecretHash, nil
}

func (s *MongoCredentialStore) StoreHash(ctx context.Context, accountID, hash string) error {
	doc := credentialDoc{AccountID: accountID, SecretHash: hash, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": accountID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}
