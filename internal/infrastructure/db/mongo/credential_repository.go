package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const collectionCredentials = "device_credentials"

// CredentialRepository is the durable credential tier: one document per
// device, replaced whole so token and user record always change together.
type CredentialRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{col: db.Collection(collectionCredentials), now: time.Now}
}

type credentialDoc struct {
	Key       string    `bson:"_id"`
	Token     string    `bson:"token"`
	User      string    `bson:"user_json"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Get loads the credential stored under key.
func (r *CredentialRepository) Get(ctx context.Context, key string) (domain.Credential, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc credentialDoc
	err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Credential{}, false, nil
		}
		return domain.Credential{}, false, fmt.Errorf("find credential: %w", err)
	}
	return domain.Credential{Token: doc.Token, UserJSON: doc.User}, true, nil
}

// Put replaces the credential under key, inserting it if needed.
func (r *CredentialRepository) Put(ctx context.Context, key string, cred domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := credentialDoc{Key: key, Token: cred.Token, User: cred.UserJSON, UpdatedAt: r.now().UTC()}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

// Delete removes the credential under key. Missing keys are not an error.
func (r *CredentialRepository) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// EnsureIndexes creates the index used to purge abandoned devices.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("updated_at_1"),
	})
	if err != nil {
		return fmt.Errorf("ensure credential indexes: %w", err)
	}
	return nil
}
