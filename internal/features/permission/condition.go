package permission

import (
	"context"

	"go.uber.org/zap"

	"go-bms/internal/features/person"
	"go-bms/internal/features/record"
	"go-bms/pkg/condition"
)

// ConditionEvaluator decides whether a permission's conditions hold for a
// concrete person and resource. Its predicate set is a closed match on the
// condition.Conditions type; a predicate absent from that type simply does
// not restrict anything, which keeps older stored grants working when new
// predicates are introduced.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, c condition.Conditions, personID, resourceID string) bool
}

type ConditionEvaluatorImpl struct {
	PersonRepo person.PersonRepository
	RecordRepo record.RecordRepository
	Logger     *zap.Logger
}

func NewConditionEvaluator(personRepo person.PersonRepository, recordRepo record.RecordRepository, logger *zap.Logger) ConditionEvaluator {
	return &ConditionEvaluatorImpl{
		PersonRepo: personRepo,
		RecordRepo: recordRepo,
		Logger:     logger,
	}
}

// Evaluate returns true only when every present restriction holds. Lookup
// failures count as the restriction not holding.
func (e *ConditionEvaluatorImpl) Evaluate(ctx context.Context, c condition.Conditions, personID, resourceID string) bool {
	if c.IsEmpty() {
		return true
	}

	if c.OwnedBy == condition.OwnedBySelf {
		if !e.ownedBySelf(ctx, personID, resourceID) {
			return false
		}
	}

	if c.Company == condition.SameCompany {
		if !e.sameCompany(ctx, personID, resourceID) {
			return false
		}
	}

	return true
}

func (e *ConditionEvaluatorImpl) ownedBySelf(ctx context.Context, personID, resourceID string) bool {
	if resourceID == "" {
		return false
	}
	if resourceID == personID {
		return true
	}
	rec, err := e.RecordRepo.FindByID(ctx, resourceID)
	if err != nil {
		e.Logger.Warn("condition lookup failed", zap.String("resource_id", resourceID), zap.Error(err))
		return false
	}
	if rec == nil {
		return false
	}
	return rec.OwnerID.Hex() == personID
}

func (e *ConditionEvaluatorImpl) sameCompany(ctx context.Context, personID, resourceID string) bool {
	if resourceID == "" {
		return false
	}
	p, err := e.PersonRepo.FindByID(ctx, personID)
	if err != nil || p == nil || p.CompanyID == nil {
		return false
	}
	rec, err := e.RecordRepo.FindByID(ctx, resourceID)
	if err != nil || rec == nil || rec.CompanyID == nil {
		return false
	}
	return *p.CompanyID == *rec.CompanyID
}
