package person

import (
	"context"
	"time"

	"go-bms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PersonRepository interface {
	Create(ctx context.Context, p *Person) error
	// FindByID looks a person up by id regardless of tenant; callers decide
	// whether a global principal is acceptable.
	FindByID(ctx context.Context, id string) (*Person, error)
	FindByIDs(ctx context.Context, ids []string) ([]Person, error)
	// BelongsToTenant reports whether the person is a member of the tenant
	// (or a global principal, which belongs everywhere).
	BelongsToTenant(ctx context.Context, personID, tenantID string) (bool, error)
}

type PersonRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPersonRepository(mongodb *database.MongodbDB) PersonRepository {
	return &PersonRepositoryImpl{
		Collection: mongodb.DB.Collection("persons"),
	}
}

func (r *PersonRepositoryImpl) Create(ctx context.Context, p *Person) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *PersonRepositoryImpl) FindByID(ctx context.Context, id string) (*Person, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var p Person
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "deleted_at": nil}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PersonRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]Person, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var persons []Person
	if err = cursor.All(ctx, &persons); err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *PersonRepositoryImpl) BelongsToTenant(ctx context.Context, personID, tenantID string) (bool, error) {
	p, err := r.FindByID(ctx, personID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	if p.IsGlobal() {
		return true, nil
	}
	return p.TenantID.Hex() == tenantID, nil
}
