package role

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-bms/internal/database"
)

type RoleAssignmentRepository interface {
	Upsert(ctx context.Context, a *RoleAssignment) (*RoleAssignment, error)
	Deactivate(ctx context.Context, personID, tenantID primitive.ObjectID, roleType RoleType, companyID *primitive.ObjectID) (int64, error)
	FindActiveByPerson(ctx context.Context, personID primitive.ObjectID, tenantID *primitive.ObjectID) ([]RoleAssignment, error)
	DeactivateExpired(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type RoleAssignmentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRoleAssignmentRepository(db *database.MongodbDB) RoleAssignmentRepository {
	return &RoleAssignmentRepositoryImpl{
		Collection: db.DB.Collection("role_assignments"),
	}
}

// identity is the tuple an active assignment is unique over.
func identity(personID, tenantID primitive.ObjectID, roleType RoleType, companyID *primitive.ObjectID) bson.M {
	filter := bson.M{
		"person_id": personID,
		"tenant_id": tenantID,
		"role_type": roleType,
		"is_active": true,
	}
	if companyID != nil {
		filter["company_id"] = *companyID
	} else {
		filter["company_id"] = bson.M{"$exists": false}
	}
	return filter
}

// Upsert creates the assignment or refreshes the existing active one for the
// same identity tuple, so repeated assigns never stack duplicates.
func (r *RoleAssignmentRepositoryImpl) Upsert(ctx context.Context, a *RoleAssignment) (*RoleAssignment, error) {
	now := time.Now().UTC()
	a.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"scope":       a.Scope,
			"assigned_by": a.AssignedBy,
			"assigned_at": a.AssignedAt,
			"is_active":   true,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"person_id":  a.PersonID,
			"tenant_id":  a.TenantID,
			"role_type":  a.RoleType,
			"created_at": now,
		},
	}
	set := update["$set"].(bson.M)
	if a.ValidUntil != nil {
		set["valid_until"] = *a.ValidUntil
	} else {
		update["$unset"] = bson.M{"valid_until": ""}
	}
	if a.CompanyID != nil {
		update["$setOnInsert"].(bson.M)["company_id"] = *a.CompanyID
	}
	if a.DepartmentID != nil {
		set["department_id"] = *a.DepartmentID
	}
	if len(a.Advanced) > 0 {
		set["advanced_permissions"] = a.Advanced
	}
	if len(a.Permissions) > 0 {
		set["permissions"] = a.Permissions
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved RoleAssignment
	err := r.Collection.FindOneAndUpdate(ctx,
		identity(a.PersonID, a.TenantID, a.RoleType, a.CompanyID),
		update, opts).Decode(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Deactivate soft-removes the active assignment for the identity tuple and
// returns how many documents were touched.
func (r *RoleAssignmentRepositoryImpl) Deactivate(ctx context.Context, personID, tenantID primitive.ObjectID, roleType RoleType, companyID *primitive.ObjectID) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		identity(personID, tenantID, roleType, companyID),
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindActiveByPerson lists the person's active, unexpired assignments. A nil
// tenantID skips tenant scoping (used for global administrators).
func (r *RoleAssignmentRepositoryImpl) FindActiveByPerson(ctx context.Context, personID primitive.ObjectID, tenantID *primitive.ObjectID) ([]RoleAssignment, error) {
	filter := bson.M{
		"person_id": personID,
		"is_active": true,
		"$or": []bson.M{
			{"valid_until": bson.M{"$exists": false}},
			{"valid_until": bson.M{"$gt": time.Now().UTC()}},
		},
	}
	if tenantID != nil {
		filter["tenant_id"] = *tenantID
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "role_type", Value: 1},
		{Key: "assigned_at", Value: -1},
	})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []RoleAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// DeactivateExpired flips every active assignment whose validity window has
// passed and returns the count, for the periodic sweep.
func (r *RoleAssignmentRepositoryImpl) DeactivateExpired(ctx context.Context) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{
			"is_active":   true,
			"valid_until": bson.M{"$lte": time.Now().UTC()},
		},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates the partial unique index backing the one active
// assignment per identity tuple guarantee, plus the sweep's expiry index.
func (r *RoleAssignmentRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "person_id", Value: 1},
				{Key: "tenant_id", Value: 1},
				{Key: "role_type", Value: 1},
				{Key: "company_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys: bson.D{{Key: "valid_until", Value: 1}},
			Options: options.Index().
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
	})
	return err
}

type CustomRoleRepository interface {
	Create(ctx context.Context, role *CustomRole) (*CustomRole, error)
	FindByID(ctx context.Context, id string) (*CustomRole, error)
	FindByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]CustomRole, error)
	Update(ctx context.Context, id string, role *CustomRole) (*CustomRole, error)
	SoftDelete(ctx context.Context, id string) error
}

type CustomRoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCustomRoleRepository(db *database.MongodbDB) CustomRoleRepository {
	return &CustomRoleRepositoryImpl{
		Collection: db.DB.Collection("custom_roles"),
	}
}

func (r *CustomRoleRepositoryImpl) Create(ctx context.Context, role *CustomRole) (*CustomRole, error) {
	now := time.Now().UTC()
	role.ID = primitive.NewObjectID()
	role.CreatedAt = now
	role.UpdatedAt = now
	if _, err := r.Collection.InsertOne(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *CustomRoleRepositoryImpl) FindByID(ctx context.Context, id string) (*CustomRole, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var role CustomRole
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "deleted_at": nil}).Decode(&role)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *CustomRoleRepositoryImpl) FindByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]CustomRole, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID, "deleted_at": nil},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []CustomRole
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *CustomRoleRepositoryImpl) Update(ctx context.Context, id string, role *CustomRole) (*CustomRole, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"name":        role.Name,
		"description": role.Description,
		"permissions": role.Permissions,
		"updated_at":  time.Now().UTC(),
	}}
	var saved CustomRole
	err = r.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "deleted_at": nil}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&saved)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CustomRoleRepositoryImpl) SoftDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
	return err
}
