package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const testNamespace = "gateway.device_credentials"

func newMockRepository(mt *mtest.T) *CredentialRepository {
	repo := NewCredentialRepository(mt.DB)
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return repo
}

func TestCredentialRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get returns stored credential", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, testNamespace, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "durable:abc"},
			{Key: "token", Value: "tok"},
			{Key: "user_json", Value: `{"id":"u-1"}`},
			{Key: "updated_at", Value: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		}))

		got, found, err := repo.Get(context.Background(), "durable:abc")
		if err != nil || !found {
			t.Fatalf("get: found=%v err=%v", found, err)
		}
		if got != (domain.Credential{Token: "tok", UserJSON: `{"id":"u-1"}`}) {
			t.Fatalf("unexpected credential %+v", got)
		}
	})

	mt.Run("get missing is not an error", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch))

		if _, found, err := repo.Get(context.Background(), "durable:none"); found || err != nil {
			t.Fatalf("expected not found, found=%v err=%v", found, err)
		}
	})

	mt.Run("get surfaces server errors", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		if _, _, err := repo.Get(context.Background(), "durable:abc"); err == nil {
			t.Fatalf("expected an error")
		}
	})

	mt.Run("put upserts whole document", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		cred := domain.Credential{Token: "tok", UserJSON: "{}"}
		if err := repo.Put(context.Background(), "durable:abc", cred); err != nil {
			t.Fatalf("put: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "update" {
			t.Fatalf("expected an update command, got %+v", evt)
		}
		update := evt.Command.Lookup("updates", "0")
		if upsert, ok := update.Document().Lookup("upsert").BooleanOK(); !ok || !upsert {
			t.Fatalf("expected an upsert, got %s", update)
		}
		if token := update.Document().Lookup("u", "token").StringValue(); token != "tok" {
			t.Fatalf("expected the token in the replacement, got %q", token)
		}
	})

	mt.Run("delete missing is not an error", func(mt *mtest.T) {
		repo := newMockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.Delete(context.Background(), "durable:none"); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})
}
