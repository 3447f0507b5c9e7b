package tenant

import (
	"context"
	"time"

	"go-bms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id string) (*Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	// FindByRef matches an explicit tenant reference against id, slug or
	// domain. Used for the loopback header/query lookup.
	FindByRef(ctx context.Context, ref string) (*Tenant, error)
	// FindDefault returns the designated development tenant: slug "default",
	// domain "localhost", or a name containing "default".
	FindDefault(ctx context.Context) (*Tenant, error)
	// FindOldestActive returns the active tenant with the earliest creation
	// time (stable ordering).
	FindOldestActive(ctx context.Context) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
}

type TenantRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTenantRepository(mongodb *database.MongodbDB) TenantRepository {
	return &TenantRepositoryImpl{
		Collection: mongodb.DB.Collection("tenants"),
	}
}

// activeFilter restricts a query to active, non-soft-deleted tenants.
func activeFilter(extra bson.M) bson.M {
	filter := bson.M{
		"is_active":  true,
		"deleted_at": nil,
	}
	for k, v := range extra {
		filter[k] = v
	}
	return filter
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, tenant *Tenant) error {
	now := time.Now().UTC()
	if tenant.ID.IsZero() {
		tenant.ID = primitive.NewObjectID()
	}
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, tenant)
	return err
}

func (r *TenantRepositoryImpl) findOne(ctx context.Context, filter bson.M) (*Tenant, error) {
	var t Tenant
	err := r.Collection.FindOne(ctx, filter).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepositoryImpl) FindByID(ctx context.Context, id string) (*Tenant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, activeFilter(bson.M{"_id": oid}))
}

func (r *TenantRepositoryImpl) FindByDomain(ctx context.Context, domain string) (*Tenant, error) {
	return r.findOne(ctx, activeFilter(bson.M{"domain": domain}))
}

func (r *TenantRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.findOne(ctx, activeFilter(bson.M{"slug": slug}))
}

func (r *TenantRepositoryImpl) FindByRef(ctx context.Context, ref string) (*Tenant, error) {
	or := []bson.M{
		{"slug": ref},
		{"domain": ref},
	}
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		or = append(or, bson.M{"_id": oid})
	}
	return r.findOne(ctx, activeFilter(bson.M{"$or": or}))
}

func (r *TenantRepositoryImpl) FindDefault(ctx context.Context) (*Tenant, error) {
	return r.findOne(ctx, activeFilter(bson.M{"$or": []bson.M{
		{"slug": "default"},
		{"domain": "localhost"},
		{"name": bson.M{"$regex": "default", "$options": "i"}},
	}}))
}

func (r *TenantRepositoryImpl) FindOldestActive(ctx context.Context) (*Tenant, error) {
	opts := options.FindOne().SetSort(bson.M{"created_at": 1})
	var t Tenant
	err := r.Collection.FindOne(ctx, activeFilter(bson.M{}), opts).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepositoryImpl) List(ctx context.Context) ([]Tenant, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cursor, err := r.Collection.Find(ctx, activeFilter(bson.M{}), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tenants []Tenant
	if err = cursor.All(ctx, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}
