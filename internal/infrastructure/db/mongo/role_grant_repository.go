package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/retailops/account-system/internal/core/domain"
)

const roleGrantCollection = "role_grants"

// MongoRoleGrantRepository stores the external role-grant records attached
// to an account.
type MongoRoleGrantRepository struct {
	coll *mongo.Collection
}

func NewRoleGrantRepository(db *mongo.Database) *MongoRoleGrantRepository {
	return &MongoRoleGrantRepository{coll: db.Collection(roleGrantCollection)}
}

type roleGrantDoc struct {
	AccountID string    `bson:"account_id"`
	Role      string    `bson:"role"`
	GrantedAt time.Time `bson:"granted_at"`
}

// Replace removes every grant the account holds and writes exactly one for
// the given role.
func (r *MongoRoleGrantRepository) Replace(ctx context.Context, accountID string, role domain.Role) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"account_id": accountID}); err != nil {
		return fmt.Errorf("delete role grants: %w", err)
	}
	doc := roleGrantDoc{AccountID: accountID, Role: string(role), GrantedAt: time.Now().UTC()}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert role grant: %w", err)
	}
	return nil
}
