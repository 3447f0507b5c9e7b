package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	common_api "go-bms/internal/common/api"
	"go-bms/internal/config"
	"go-bms/internal/database"
	"go-bms/internal/features/audit"
	"go-bms/internal/features/company"
	"go-bms/internal/features/permission"
	"go-bms/internal/features/person"
	"go-bms/internal/features/record"
	"go-bms/internal/features/role"
	"go-bms/internal/features/system"
	"go-bms/internal/features/tenant"
	"go-bms/internal/logger"
	"go-bms/internal/middleware"
	"go-bms/pkg/utils"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(resolver tenant.Resolver) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	// Bind every request to a tenant before anything else runs
	app.Use(tenant.Middleware(resolver))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, assignmentRepo role.RoleAssignmentRepository, zlog *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("failed to ensure role assignment indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// StartExpirySweep schedules the periodic deactivation of assignments whose
// validity window has passed.
func StartExpirySweep(lc fx.Lifecycle, store role.RoleStore, cfg *config.Config, zlog *zap.Logger) {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.SweepInterval)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := store.CleanupExpiredRoles(ctx); err != nil {
			zlog.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		zlog.Error("failed to schedule expiry sweep", zap.Error(err))
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			c.Stop()
			return nil
		},
	})
}

// recordAuthorizer adapts the permission evaluator to the narrow interface
// the record service declares, breaking the package cycle between the two
// features.
type recordAuthorizer struct {
	evaluator permission.Evaluator
}

func (a *recordAuthorizer) CanView(ctx context.Context, personID, entity, resourceID, tenantID string) bool {
	return a.evaluator.CanAccessResource(ctx, personID, entity, resourceID, "view", tenantID)
}

func (a *recordAuthorizer) FilterForView(ctx context.Context, personID, entity string, data interface{}, tenantID string) (interface{}, error) {
	return a.evaluator.FilterDataByPermissions(ctx, personID, entity, "view", data, tenantID)
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			tenant.NewTenantRepository,
			person.NewPersonRepository,
			company.NewCompanyRepository,
			record.NewRecordRepository,
			role.NewRoleAssignmentRepository,
			role.NewCustomRoleRepository,
			audit.NewAuditRepository,

			// Initialize Service
			tenant.NewResolver,
			tenant.NewTenantService,
			audit.NewAuditService,
			role.NewRoleStore,
			role.NewCustomRoleService,
			permission.NewConditionEvaluator,
			permission.NewEvaluator,
			record.NewRecordService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(r person.PersonRepository) audit.PersonFinder { return r },
			func(e permission.Evaluator) middleware.PermissionChecker { return e },
			func(e permission.Evaluator) record.Authorizer { return &recordAuthorizer{evaluator: e} },

			// Initialize Controller
			tenant.NewTenantController,
			role.NewRoleController,
			record.NewRecordController,
			permission.NewPermissionController,
			audit.NewAuditController,

			// Initialize API Routes
			AsRoute(tenant.NewTenantApi),
			AsRoute(role.NewRoleApi),
			AsRoute(record.NewRecordApi),
			AsRoute(permission.NewPermissionApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartExpirySweep,
			InitializeIndexes,
		),
	)

	app.Run()
}
