package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/features/person"
	"go-bms/pkg/utils"
)

// PersonFinder resolves actor ids to persons for display names.
type PersonFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]person.Person, error)
}

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo       AuditRepository
	PersonRepo PersonFinder
}

func NewAuditService(repo AuditRepository, personRepo PersonFinder) AuditService {
	return &AuditServiceImpl{
		Repo:       repo,
		PersonRepo: personRepo,
	}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	// Extract Actor from Context
	actorID := "system"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok {
		actorID = claims.PersonID
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	return s.Repo.Create(ctx, log)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	logs, err := s.Repo.List(ctx, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	// Collect Actor IDs
	actorIDs := make([]string, 0)
	uniqueIDs := make(map[string]bool)
	for _, log := range logs {
		if log.ActorID != "system" && log.ActorID != "" {
			if !uniqueIDs[log.ActorID] {
				uniqueIDs[log.ActorID] = true
				actorIDs = append(actorIDs, log.ActorID)
			}
		}
	}

	// Batch Fetch Persons
	nameMap := make(map[string]string)
	if len(actorIDs) > 0 {
		persons, err := s.PersonRepo.FindByIDs(ctx, actorIDs)
		if err == nil {
			for _, p := range persons {
				nameMap[p.ID.Hex()] = p.FirstName + " " + p.LastName
			}
		}
	}

	// Populate Actor Names
	for i, log := range logs {
		if log.ActorID == "system" || log.ActorID == "" {
			logs[i].ActorName = "System"
		} else {
			if name, ok := nameMap[log.ActorID]; ok {
				logs[i].ActorName = name
			} else {
				logs[i].ActorName = "Unknown Person"
			}
		}
	}

	return logs, nil
}
