package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-pharmacy-ws/internal/handler"
	"go-pharmacy-ws/internal/middleware"
	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"
	"go-pharmacy-ws/internal/service"
	"go-pharmacy-ws/internal/ws"
	"go-pharmacy-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Batch{}, &model.BatchMedicine{},
		&model.ActivityLog{}, &model.DiscardRecord{},
		&model.Patient{},
		&model.User{}, &model.Privilege{}, &model.Role{},
	)

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	batchRepo := repository.NewBatchRepo(db)
	activityRepo := repository.NewActivityLogRepo(db)
	discardRepo := repository.NewDiscardRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	batchService := service.NewBatchService(batchRepo, activityRepo, wsHub)
	discardService := service.NewDiscardService(batchRepo, discardRepo, wsHub)
	stockService := service.NewStockService(batchRepo)
	patientService := service.NewPatientService(patientRepo)
	dashService := service.NewDashboardService(batchRepo, activityRepo, discardRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	batchHandler := handler.NewBatchHandler(batchService)
	discardHandler := handler.NewDiscardHandler(discardService)
	stockHandler := handler.NewStockHandler(stockService)
	patientHandler := handler.NewPatientHandler(patientService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Pharmacy Inventory v1.0",
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege("dashboard:view"), dashHandler.GetDashboardStats)

	// Batches. The static segments must be registered before the :id routes.
	protected.Get("/batches", middleware.RequirePrivilege("batch:view"), batchHandler.GetBatches)
	protected.Post("/batches", middleware.RequirePrivilege("batch:create"), batchHandler.CreateBatch)
	protected.Get("/batches/:id", middleware.RequirePrivilege("batch:view"), batchHandler.GetBatch)
	protected.Put("/batches/:id", middleware.RequirePrivilege("batch:update"), batchHandler.UpdateBatch)
	protected.Post("/batches/:id/finalize", middleware.RequirePrivilege("batch:finalize"), batchHandler.FinalizeBatch)
	protected.Delete("/batches/:id", middleware.RequirePrivilege("batch:delete"), batchHandler.DeleteBatch)
	protected.Get("/batches/:id/activity", middleware.RequirePrivilege("activity:view"), batchHandler.GetBatchActivity)

	// Activity history by batch number, usable after batch deletion
	protected.Get("/activity/:number", middleware.RequirePrivilege("activity:view"), batchHandler.GetActivityByNumber)

	// Stock queries
	protected.Get("/stock", middleware.RequirePrivilege("stock:view"), stockHandler.GetStock)
	protected.Get("/stock/expiring", middleware.RequirePrivilege("stock:view"), stockHandler.GetExpiringStock)
	protected.Get("/stock/low", middleware.RequirePrivilege("stock:view"), stockHandler.GetLowStock)
	protected.Get("/stock/:medicineId", middleware.RequirePrivilege("stock:view"), stockHandler.GetStockByMedicine)

	// Discards
	protected.Get("/discards", middleware.RequirePrivilege("discard:view"), discardHandler.GetDiscards)
	protected.Post("/discards", middleware.RequirePrivilege("discard:create"), discardHandler.DiscardLine)
	protected.Post("/discards/medicine", middleware.RequirePrivilege("discard:create"), discardHandler.DiscardAllForMedicine)
	protected.Get("/discards/medicine/:medicineId", middleware.RequirePrivilege("discard:view"), discardHandler.GetDiscardsByMedicine)

	// Patients
	protected.Get("/patients", middleware.RequirePrivilege("patient:view"), patientHandler.GetPatients)
	protected.Post("/patients", middleware.RequirePrivilege("patient:create"), patientHandler.CreatePatient)
	protected.Get("/patients/:id", middleware.RequirePrivilege("patient:view"), patientHandler.GetPatient)
	protected.Put("/patients/:id", middleware.RequirePrivilege("patient:update"), patientHandler.UpdatePatient)
	protected.Delete("/patients/:id", middleware.RequirePrivilege("patient:delete"), patientHandler.DeletePatient)

	// User management
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Roles and privilege catalog
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MASTER_ADMIN gets ALL privileges
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		db.Model(&masterRole).Association("Privileges").Replace(allPrivileges)
		log.Println("MASTER_ADMIN role assigned all privileges")
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if p.Code != "user:create" && p.Code != "user:update" && p.Code != "user:delete" && p.Code != "user:update_privilege" {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		db.Model(&adminRole).Association("Privileges").Replace(adminPrivileges)
		log.Println("ADMIN role assigned limited privileges")
	}

	// PHARMACIST gets day-to-day inventory and patient operations
	pharmacistRole, err := roleRepo.FindByCode(model.RolePharmacist)
	if err == nil && len(pharmacistRole.Privileges) == 0 {
		allowed := map[string]bool{
			"batch:view": true, "batch:create": true, "batch:update": true,
			"stock:view": true, "discard:create": true, "discard:view": true,
			"activity:view": true, "dashboard:view": true,
			"patient:view": true, "patient:create": true, "patient:update": true,
		}
		pharmacistPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if allowed[p.Code] {
				pharmacistPrivileges = append(pharmacistPrivileges, p)
			}
		}
		db.Model(&pharmacistRole).Association("Privileges").Replace(pharmacistPrivileges)
		log.Println("PHARMACIST role assigned inventory privileges")
	}

	// 4. Create default admin user with MASTER_ADMIN role
	if _, err := userRepo.FindByEmail("admin@example.com"); err != nil {
		masterRole, _ := roleRepo.FindByCode(model.RoleMasterAdmin)

		admin := &model.User{
			Email:      "admin@example.com",
			FullName:   "Master Administrator",
			RoleID:     &masterRole.ID,
			IsActive:   true,
			Privileges: masterRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin@example.com / admin123 (MASTER_ADMIN)")
		}
	}
}
