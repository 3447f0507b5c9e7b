package record

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/person"
	"go-bms/internal/features/role"
	"go-bms/pkg/condition"
)

var ErrAccessDenied = errors.New("access denied")

// Authorizer is the slice of the permission evaluator this service needs.
// Declared here so the permission feature can keep depending on record for
// condition lookups; the adapter lives in main.
type Authorizer interface {
	CanView(ctx context.Context, personID, entity, resourceID, tenantID string) bool
	FilterForView(ctx context.Context, personID, entity string, data interface{}, tenantID string) (interface{}, error)
}

type RecordService interface {
	GetRecord(ctx context.Context, personID, id string) (interface{}, error)
	ListRecords(ctx context.Context, personID, entity string) ([]map[string]interface{}, error)
}

type RecordServiceImpl struct {
	Repo       RecordRepository
	Roles      role.RoleStore
	PersonRepo person.PersonRepository
	Authorizer Authorizer
	Logger     *zap.Logger
}

func NewRecordService(repo RecordRepository, roles role.RoleStore, personRepo person.PersonRepository, authorizer Authorizer, logger *zap.Logger) RecordService {
	return &RecordServiceImpl{
		Repo:       repo,
		Roles:      roles,
		PersonRepo: personRepo,
		Authorizer: authorizer,
		Logger:     logger,
	}
}

// GetRecord loads one record, checks per-record access and redacts the data
// to the caller's allowed fields.
func (s *RecordServiceImpl) GetRecord(ctx context.Context, personID, id string) (interface{}, error) {
	tenantID, _ := ctx.Value(common_models.TenantIDKey).(string)

	rec, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if !s.Authorizer.CanView(ctx, personID, rec.Entity, id, tenantID) {
		return nil, ErrAccessDenied
	}

	data := rec.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	data["id"] = rec.ID.Hex()

	return s.Authorizer.FilterForView(ctx, personID, rec.Entity, data, tenantID)
}

// ListRecords lists an entity collection narrowed to the caller's reach: a
// catalog-level view grant lists everything in the tenant, otherwise
// own-scoped advanced rows compile into a query filter so restricted callers
// only ever receive rows a per-record check would grant.
func (s *RecordServiceImpl) ListRecords(ctx context.Context, personID, entity string) ([]map[string]interface{}, error) {
	tenantID, _ := ctx.Value(common_models.TenantIDKey).(string)

	filter, allowed, err := s.listFilter(ctx, personID, entity, tenantID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	records, err := s.Repo.List(ctx, entity, filter)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		data := rec.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		data["id"] = rec.ID.Hex()

		filtered, err := s.Authorizer.FilterForView(ctx, personID, entity, data, tenantID)
		if err != nil {
			return nil, err
		}
		if m, ok := filtered.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *RecordServiceImpl) listFilter(ctx context.Context, personID, entity, tenantID string) (bson.M, bool, error) {
	assignments, err := s.Roles.GetUserRoles(ctx, tenantID, personID)
	if err != nil {
		return nil, false, err
	}

	// Own-scoped rows compile into a filter; broader grants list everything.
	var ownRows []role.AdvancedPermission
	broad := false
	for _, a := range assignments {
		for _, ap := range a.Advanced {
			if !strings.EqualFold(ap.Resource, entity) || !strings.EqualFold(ap.Action, "view") {
				continue
			}
			if ap.Scope == role.AdvOwn {
				ownRows = append(ownRows, ap)
			} else {
				broad = true
			}
		}
	}

	// With no broad advanced row, a plain collection-level check decides
	// "list everything": callers holding only own-scoped rows fail it and
	// fall through to the compiled filter.
	if broad || s.Authorizer.CanView(ctx, personID, entity, "", tenantID) {
		return bson.M{}, true, nil
	}

	if len(ownRows) == 0 {
		return nil, false, nil
	}

	personOID, err := primitive.ObjectIDFromHex(personID)
	if err != nil {
		return nil, false, err
	}
	var companyID *primitive.ObjectID
	if p, err := s.PersonRepo.FindByID(ctx, personID); err == nil && p != nil {
		companyID = p.CompanyID
	}

	var clauses []bson.M
	for _, ap := range ownRows {
		clauses = append(clauses, condition.Compile(ap.Conditions, personOID, companyID))
	}
	if len(clauses) == 1 {
		return clauses[0], true, nil
	}
	return bson.M{"$or": clauses}, true, nil
}
