package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinicportal/portal-auth/internal/core/domain"
)

const authEventsCollection = "auth_events"

type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(authEventsCollection)}
}

type authEventDoc struct {
	Kind      string    `bson:"kind"`
	AccountID string    `bson:"account_id,omitempty"`
	Email     string    `bson:"email,omitempty"`
	ActorID   string    `bson:"actor_id,omitempty"`
	Detail    string    `bson:"detail,omitempty"`
	At        time.Time `bson:"at"`
}

func (r *AuditRepository) InsertEvent(ctx context.Context, e domain.AuthEvent) error {
	_, err := r.coll.InsertOne(ctx, authEventDoc{
		Kind:      string(e.Kind),
		AccountID: e.AccountID,
		Email:     e.Email,
		ActorID:   e.ActorID,
		Detail:    e.Detail,
		At:        e.At,
	})
	if err != nil {
		return unavailable("insert auth event", err)
	}
	return nil
}
