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

	"famledger/internal/clock"
	"famledger/internal/handlers"
	"famledger/internal/logger"
	"famledger/internal/middleware"
	"famledger/internal/models"
	"famledger/internal/services"
	"famledger/internal/validator"
)

const testMaintenanceKey = "test-maintenance-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
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
		&models.Household{},
		&models.HouseholdMember{},
		&models.ChildAccount{},
		&models.SpendRecord{},
		&models.Allowance{},
		&models.AllowancePayment{},
		&models.MoneyRequest{},
		&models.Chore{},
		&models.ChoreCompletion{},
		&models.Notification{},
		&models.NotificationPreference{},
		&models.AuditLog{},
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
	clk := clock.System{}

	// Services
	userService := services.NewUserService(db, clk)
	householdService := services.NewHouseholdService(db)
	notificationService := services.NewNotificationService(db, nil, clk)
	childAccountService := services.NewChildAccountService(db, householdService, clk)
	choreService := services.NewChoreService(db, householdService, notificationService, clk)
	allowanceService := services.NewAllowanceService(db, householdService, childAccountService, choreService, notificationService, clk)
	moneyRequestService := services.NewMoneyRequestService(db, householdService, childAccountService, notificationService, clk)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	childAccountHandler := handlers.NewChildAccountHandler(childAccountService, householdService, auditService)
	allowanceHandler := handlers.NewAllowanceHandler(allowanceService, householdService, auditService)
	moneyRequestHandler := handlers.NewMoneyRequestHandler(moneyRequestService, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	choreHandler := handlers.NewChoreHandler(choreService, householdService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	households := protected.Group("/households")
	households.POST("", householdHandler.CreateHousehold)
	households.GET("/:id", householdHandler.GetHousehold)
	households.POST("/:id/members", householdHandler.AddMember)
	households.GET("/:id/members", householdHandler.GetMembers)

	households.POST("/:id/accounts", childAccountHandler.EnrollChild)
	households.GET("/:id/accounts/:childId", childAccountHandler.GetAccount)
	households.PUT("/:id/accounts/:childId/limits", childAccountHandler.UpdateLimits)
	households.GET("/:id/accounts/:childId/totals", childAccountHandler.GetSpendTotals)
	households.POST("/:id/accounts/:childId/spend/preview", childAccountHandler.PreviewSpend)
	households.POST("/:id/spend", childAccountHandler.Spend)

	households.POST("/:id/allowances", allowanceHandler.CreateAllowance)
	households.GET("/:id/allowances", allowanceHandler.GetHouseholdAllowances)
	allowances := protected.Group("/allowances")
	allowances.PUT("/:allowanceId", allowanceHandler.UpdateAllowance)
	allowances.DELETE("/:allowanceId", allowanceHandler.DeactivateAllowance)
	allowances.GET("/:allowanceId/payments", allowanceHandler.GetPaymentHistory)

	households.POST("/:id/requests", moneyRequestHandler.CreateRequest)
	households.GET("/:id/requests/mine", moneyRequestHandler.GetMyRequests)
	households.GET("/:id/requests/queue", moneyRequestHandler.GetApprovalQueue)
	requests := protected.Group("/requests")
	requests.POST("/:requestId/approve", moneyRequestHandler.ApproveRequest)
	requests.POST("/:requestId/reject", moneyRequestHandler.RejectRequest)

	households.POST("/:id/chores", choreHandler.CreateChore)
	households.GET("/:id/chores", choreHandler.GetChores)
	chores := protected.Group("/chores")
	chores.POST("/:choreId/complete", choreHandler.MarkComplete)
	completions := protected.Group("/completions")
	completions.POST("/:completionId/review", choreHandler.ReviewCompletion)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
	notifications.POST("/:notificationId/archive", notificationHandler.Archive)
	notifications.PUT("/preferences", notificationHandler.SetPreference)

	maintenance := v1.Group("/maintenance")
	maintenance.Use(middleware.MaintenanceAuthMiddleware(testMaintenanceKey))
	maintenance.POST("/allowances/process", allowanceHandler.ProcessDuePayments)
	maintenance.POST("/notifications/sweep", notificationHandler.SweepExpired)

	return &testApp{DB: db, Router: router}
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

// maintenanceRequest makes a request authenticated with the maintenance API key.
func (app *testApp) maintenanceRequest(method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
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

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password, role string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User","role":%q}`, email, password, role)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// setupFamily registers a guardian and a child, creates a household, adds
// the child as a member, and enrolls a child account. Returns the tokens
// and IDs the flow tests need.
func (app *testApp) setupFamily(t *testing.T) (guardianToken, childToken, householdID, guardianID, childID string) {
	t.Helper()

	n := dbCounter.Add(1)
	guardianToken, _, guardianID = app.registerUser(t,
		fmt.Sprintf("guardian%d@test.com", n), "password123", "guardian")
	childToken, _, childID = app.registerUser(t,
		fmt.Sprintf("child%d@test.com", n), "password123", "child")

	rec := app.request("POST", "/api/v1/households", `{"name":"Test Family"}`, guardianToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household failed: %d %s", rec.Code, rec.Body.String())
	}
	household := parseJSON(t, rec)["household"].(map[string]interface{})
	householdID = household["id"].(string)

	body := fmt.Sprintf(`{"user_id":%q,"role":"child"}`, childID)
	rec = app.request("POST", "/api/v1/households/"+householdID+"/members", body, guardianToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member failed: %d %s", rec.Code, rec.Body.String())
	}

	body = fmt.Sprintf(`{"child_id":%q}`, childID)
	rec = app.request("POST", "/api/v1/households/"+householdID+"/accounts", body, guardianToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll child failed: %d %s", rec.Code, rec.Body.String())
	}

	return guardianToken, childToken, householdID, guardianID, childID
}

// accountBalance reads a child account's balance straight from the database.
func (app *testApp) accountBalance(t *testing.T, householdID, childID string) int64 {
	t.Helper()
	var account models.ChildAccount
	if err := app.DB.Where("household_id = ? AND child_id = ?", householdID, childID).
		First(&account).Error; err != nil {
		t.Fatalf("failed to load child account: %v", err)
	}
	return account.Balance
}
