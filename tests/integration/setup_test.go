package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quarterdeck/internal/events"
	"quarterdeck/internal/handlers"
	"quarterdeck/internal/logger"
	"quarterdeck/internal/middleware"
	"quarterdeck/internal/models"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
	"quarterdeck/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Hub    *events.Hub
	Users  services.UserServicer
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Service{},
		&models.Host{},
		&models.SSHHost{},
		&models.AuditRecord{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	serviceService := services.NewServiceService(db)
	hostService := services.NewHostService(db)
	sshHostService := services.NewSSHHostService(db)
	categoryService := services.NewCategoryService(db)

	registry := resources.NewRegistry()
	registry.Register(serviceService)
	registry.Register(hostService)
	registry.Register(sshHostService)
	registry.Register(categoryService)
	registry.Register(userService)

	hub := events.NewHub()
	undoService := services.NewUndoService(auditService, registry, hub)
	trail := handlers.NewTrail(auditService, hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	serviceHandler := handlers.NewServiceHandler(serviceService, trail)
	hostHandler := handlers.NewHostHandler(hostService, trail)
	sshHostHandler := handlers.NewSSHHostHandler(sshHostService, trail)
	categoryHandler := handlers.NewCategoryHandler(categoryService, trail)
	userHandler := handlers.NewUserHandler(userService, trail)
	auditHandler := handlers.NewAuditHandler(auditService, undoService, hub)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	svcRoutes := protected.Group("/services")
	svcRoutes.POST("", serviceHandler.CreateService)
	svcRoutes.GET("", serviceHandler.GetServices)
	svcRoutes.GET("/:id", serviceHandler.GetService)
	svcRoutes.PUT("/:id", serviceHandler.UpdateService)
	svcRoutes.DELETE("/:id", serviceHandler.DeleteService)

	hosts := protected.Group("/hosts")
	hosts.POST("", hostHandler.CreateHost)
	hosts.GET("", hostHandler.GetHosts)
	hosts.GET("/:id", hostHandler.GetHost)
	hosts.PUT("/:id", hostHandler.UpdateHost)
	hosts.DELETE("/:id", hostHandler.DeleteHost)

	sshHosts := protected.Group("/ssh-hosts")
	sshHosts.POST("", sshHostHandler.CreateSSHHost)
	sshHosts.GET("", sshHostHandler.GetSSHHosts)
	sshHosts.GET("/:id", sshHostHandler.GetSSHHost)
	sshHosts.PUT("/:id", sshHostHandler.UpdateSSHHost)
	sshHosts.DELETE("/:id", sshHostHandler.DeleteSSHHost)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	auditRoutes := protected.Group("/audit")
	auditRoutes.GET("", auditHandler.GetAuditRecords)
	auditRoutes.POST("/restore/:type/:id", auditHandler.RestoreRecord)
	auditRoutes.POST("/revert/:type/:id", auditHandler.RevertRecord)
	auditRoutes.DELETE("", middleware.RequireAdmin(), auditHandler.PurgeRecords)

	users := protected.Group("/users")
	users.Use(middleware.RequireAdmin())
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.GetUsers)
	users.DELETE("/:id", userHandler.DeleteUser)

	return &testApp{DB: db, Hub: hub, Users: userService, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// seedOperator creates an account directly and logs in through the API,
// returning the token and user id.
func (app *testApp) seedOperator(t *testing.T, username string, role models.UserRole) (string, uint) {
	t.Helper()
	user, err := app.Users.CreateUser(username, "password123", role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	body := fmt.Sprintf(`{"username":%q,"password":"password123"}`, username)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string), user.ID
}
