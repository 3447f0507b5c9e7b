package company

import (
	"context"
	"fmt"
	"time"

	"go-bms/internal/common/models"
	"go-bms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id string) (*Company, error)
}

type CompanyRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCompanyRepository(mongodb *database.MongodbDB) CompanyRepository {
	return &CompanyRepositoryImpl{
		Collection: mongodb.DB.Collection("companies"),
	}
}

func (r *CompanyRepositoryImpl) Create(ctx context.Context, company *Company) error {
	tenantID, ok := ctx.Value(models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return fmt.Errorf("tenant context missing")
	}
	oid, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return err
	}
	company.TenantID = oid
	now := time.Now().UTC()
	if company.ID.IsZero() {
		company.ID = primitive.NewObjectID()
	}
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err = r.Collection.InsertOne(ctx, company)
	return err
}

func (r *CompanyRepositoryImpl) FindByID(ctx context.Context, id string) (*Company, error) {
	tenantID, ok := ctx.Value(models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return nil, fmt.Errorf("tenant context missing")
	}
	oid, err := primitive.ObjectIDFromHex(tenantID)
	if err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var c Company
	err = r.Collection.FindOne(ctx, bson.M{"_id": objectID, "tenant_id": oid, "deleted_at": nil}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
