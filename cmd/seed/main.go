package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	common_models "go-bms/internal/common/models"
	"go-bms/internal/config"
	"go-bms/internal/database"
	"go-bms/internal/features/audit"
	"go-bms/internal/features/company"
	"go-bms/internal/features/person"
	"go-bms/internal/features/role"
	"go-bms/internal/features/tenant"
	"go-bms/internal/logger"
	"go-bms/pkg/utils"
)

// Seed bootstraps a development environment: the default tenant, a first
// company, a super admin person with an active role assignment, and a JWT
// for that person printed to the log.
func Seed(
	lc fx.Lifecycle,
	cfg *config.Config,
	tenantRepo tenant.TenantRepository,
	personRepo person.PersonRepository,
	companyRepo company.CompanyRepository,
	store role.RoleStore,
	assignmentRepo role.RoleAssignmentRepository,
	zlog *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						zlog.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()

				utils.SetSecret(cfg.JWTSecret)
				zlog.Info("Starting database seeding...")

				if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("Failed to ensure indexes", zap.Error(err))
					return
				}

				// 1. Default tenant
				t, err := tenantRepo.FindBySlug(ctx, "default")
				if err != nil {
					zlog.Error("Tenant lookup failed", zap.Error(err))
					return
				}
				if t == nil {
					t = &tenant.Tenant{
						Name:     "Default Tenant",
						Slug:     "default",
						Domain:   "localhost",
						IsActive: true,
					}
					if err := tenantRepo.Create(ctx, t); err != nil {
						zlog.Error("Failed to create default tenant", zap.Error(err))
						return
					}
					zlog.Info("Created default tenant", zap.String("tenant_id", t.ID.Hex()))
				} else {
					zlog.Info("Default tenant exists, skipping")
				}

				tenantCtx := context.WithValue(ctx, common_models.TenantIDKey, t.ID.Hex())

				// 2. First company
				c := &company.Company{Name: "Head Office"}
				if err := companyRepo.Create(tenantCtx, c); err != nil {
					zlog.Error("Failed to create company", zap.Error(err))
					return
				}

				// 3. Bootstrap super admin
				admin := &person.Person{
					ID:         primitive.NewObjectID(),
					TenantID:   t.ID,
					FirstName:  "System",
					LastName:   "Administrator",
					Email:      "admin@localhost",
					GlobalRole: string(role.RoleSuperAdmin),
				}
				if err := personRepo.Create(tenantCtx, admin); err != nil {
					zlog.Error("Failed to create admin person", zap.Error(err))
					return
				}

				if _, err := store.AssignRole(tenantCtx, t.ID.Hex(), role.AssignInput{
					PersonID: admin.ID.Hex(),
					RoleType: string(role.RoleSuperAdmin),
				}); err != nil {
					zlog.Error("Failed to assign super admin role", zap.Error(err))
					return
				}

				token, err := utils.GenerateToken(admin.ID, t.ID.Hex())
				if err != nil {
					zlog.Error("Failed to generate bootstrap token", zap.Error(err))
					return
				}

				zlog.Info("Seeding complete",
					zap.String("admin_id", admin.ID.Hex()),
					zap.String("bootstrap_token", token))
			}()
			return nil
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,

			tenant.NewTenantRepository,
			person.NewPersonRepository,
			company.NewCompanyRepository,
			role.NewRoleAssignmentRepository,
			role.NewCustomRoleRepository,
			audit.NewAuditRepository,

			audit.NewAuditService,
			role.NewRoleStore,

			func(r person.PersonRepository) audit.PersonFinder { return r },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	).Run()
}
