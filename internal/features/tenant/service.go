package tenant

import (
	"context"
	"errors"
	"fmt"

	"go-bms/internal/common/models"
	"go-bms/pkg/utils"
)

var ErrSlugTaken = errors.New("tenant slug already in use")

type TenantService interface {
	GetCurrent(ctx context.Context) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
}

type TenantServiceImpl struct {
	Repo TenantRepository
}

func NewTenantService(repo TenantRepository) TenantService {
	return &TenantServiceImpl{Repo: repo}
}

func (s *TenantServiceImpl) GetCurrent(ctx context.Context) (*Tenant, error) {
	tenantID, ok := ctx.Value(models.TenantIDKey).(string)
	if !ok || tenantID == "" {
		return nil, fmt.Errorf("tenant context missing")
	}
	t, err := s.Repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoTenant
	}
	return t, nil
}

func (s *TenantServiceImpl) List(ctx context.Context) ([]Tenant, error) {
	return s.Repo.List(ctx)
}

// Create provisions a new active tenant. The slug defaults to a slugified
// name and must be unique among active tenants.
func (s *TenantServiceImpl) Create(ctx context.Context, t *Tenant) (*Tenant, error) {
	if t.Slug == "" {
		t.Slug = utils.Slugify(t.Name)
	}

	existing, err := s.Repo.FindBySlug(ctx, t.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugTaken
	}

	t.IsActive = true
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
