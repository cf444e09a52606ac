package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workforce/login-service/internal/core/domain"
)

const collectionRoles = "roles"

type mongoRole struct {
	ID          int64  `bson:"_id"`
	Description string `bson:"description"`
}

func (r mongoRole) toDomain() *domain.Role {
	return &domain.Role{ID: r.ID, Description: r.Description}
}

// RoleRepository implements ports.RoleStore using MongoDB.
type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles)}
}

// Exists reports whether a role with the given id has been seeded.
func (r *RoleRepository) Exists(ctx context.Context, roleID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": roleID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count roles: %w", err)
	}
	return n > 0, nil
}

// Seed upserts domain.DefaultRoles.
func (r *RoleRepository) Seed(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(domain.DefaultRoles))
	for _, role := range domain.DefaultRoles {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": role.ID}).
			SetReplacement(mongoRole{ID: role.ID, Description: role.Description}).
			SetUpsert(true))
	}

	_, err := r.col.BulkWrite(ctx, models)
	return err
}
