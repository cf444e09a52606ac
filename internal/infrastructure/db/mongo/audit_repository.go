package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/workforce/login-service/internal/core/domain"
)

const collectionAuditLogs = "audit_logs"

// AuditLogRepository implements ports.AuditLogStore using MongoDB.
type AuditLogRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) *AuditLogRepository {
	return &AuditLogRepository{db: db, col: db.Collection(collectionAuditLogs)}
}

// Insert persists a login audit entry.
func (r *AuditLogRepository) Insert(ctx context.Context, entry *domain.AuditLogEntry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextSequence(ctx, r.db, collectionAuditLogs)
	if err != nil {
		return 0, err
	}

	doc := bson.M{
		"_id":     id,
		"user_id": entry.UserID,
		"date":    entry.Date.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return 0, err
	}

	entry.ID = id
	return 1, nil
}

func (r *AuditLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}
