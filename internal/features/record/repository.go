package record

import (
	"context"
	"fmt"

	"go-bms/internal/common/models"
	"go-bms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RecordRepository interface {
	FindByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, entity string, filter bson.M) ([]Record, error)
}

type RecordRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRecordRepository(mongodb *database.MongodbDB) RecordRepository {
	return &RecordRepositoryImpl{
		Collection: mongodb.DB.Collection("records"),
	}
}

func tenantOID(ctx context.Context) (primitive.ObjectID, error) {
	tenantID, ok := ctx.Value(models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return primitive.NilObjectID, fmt.Errorf("tenant context missing")
	}
	return primitive.ObjectIDFromHex(tenantID)
}

func (r *RecordRepositoryImpl) FindByID(ctx context.Context, id string) (*Record, error) {
	oid, err := tenantOID(ctx)
	if err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var rec Record
	err = r.Collection.FindOne(ctx, bson.M{"_id": objectID, "tenant_id": oid, "deleted": false}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecordRepositoryImpl) List(ctx context.Context, entity string, filter bson.M) ([]Record, error) {
	oid, err := tenantOID(ctx)
	if err != nil {
		return nil, err
	}

	query := bson.M{"tenant_id": oid, "entity": entity, "deleted": false}
	for k, v := range filter {
		query[k] = v
	}

	cursor, err := r.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []Record
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
