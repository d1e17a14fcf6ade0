package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"articonnect/internal/handlers"
	"articonnect/internal/middleware"
	"articonnect/internal/models"
	"articonnect/internal/repositories"
	"articonnect/internal/services"
	"articonnect/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services wired like main does.
func setupApp() (*fiber.App, *services.AuthService, error) {
	// Configure Viper for testing
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}
	// Each pooled connection would get its own in-memory database; keep one.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access database pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &store.Entry{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	kvStore := store.NewGormStore(db)

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewStoreOrderRepository(kvStore)

	cartService := services.NewCartService(kvStore)
	promoService := services.NewPromoService()
	checkoutService := services.NewCheckoutService(cartService, orderRepo, promoService, nil) // nil for RabbitMQ client
	orderService := services.NewOrderService(orderRepo)
	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(userRepo, jwtSecret)
	prefsService := services.NewPrefsService(kvStore)

	authHandler := handlers.NewAuthHandler(authService, prefsService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService, promoService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	profileHandler := handlers.NewProfileHandler(prefsService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	cartHandler.RegisterRoutes(protectedRoutes)
	checkoutHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)
	profileHandler.RegisterRoutes(protectedRoutes)

	seedProductsForTest(productRepo)

	return app, authService, nil
}

// seedProductsForTest populates the product repository for tests.
func seedProductsForTest(repo repositories.ProductRepository) {
	products := []models.Product{
		{Name: "Table basse en chêne", Description: "Chêne massif", Price: 620.00, Stock: 3, Category: "Travail du bois", Artisan: "Sophie Dupont"},
		{Name: "Banc en bois recyclé", Description: "Bois recyclé", Price: 280.00, Stock: 4, Category: "Mobilier", Artisan: "Atelier Verde"},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Failed to seed product %s: %v", products[i].Name, err)
		}
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// registerAndLogin creates a user and returns a bearer token for it.
func registerAndLogin(t *testing.T, app *fiber.App, name, email, password string) string {
	t.Helper()

	userToRegister := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     "client",
	}
	jsonBody, _ := json.Marshal(userToRegister)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	loginCredentials := map[string]string{
		"email":    email,
		"password": password,
	}
	jsonBody, _ = json.Marshal(loginCredentials)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	assert.NoError(t, err)
	resp.Body.Close()
	token, _ := loginResp["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// doJSON performs an authenticated JSON request against the test app.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService, err := setupApp()
	assert.NoError(t, err)

	userToRegister := map[string]string{
		"name":     "Claire Fontaine",
		"email":    "claire@example.com",
		"password": "password123",
		"role":     "client",
	}
	jsonBody, _ := json.Marshal(userToRegister)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var registerResp map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&registerResp)
	assert.NoError(t, err)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	resp.Body.Close()

	// Duplicate registration (same email)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login
	loginCredentials := map[string]string{
		"email":    "claire@example.com",
		"password": "password123",
	}
	jsonBody, _ = json.Marshal(loginCredentials)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	assert.NoError(t, err)
	token, _ := loginResp["token"].(string)
	assert.NotEmpty(t, token)
	resp.Body.Close()

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "claire@example.com", claims["email"])
	assert.Contains(t, claims, "user_id")
}

func TestProductEndpoints(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	token := registerAndLogin(t, app, "Sophie Dupont", "sophie@example.com", "password123")

	// List all products
	resp := doJSON(t, app, http.MethodGet, "/api/v1/products", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.GreaterOrEqual(t, len(products), 2)
	resp.Body.Close()

	// Category filter is case-insensitive
	resp = doJSON(t, app, http.MethodGet, "/api/v1/products?category=mobilier", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 1)
	assert.Equal(t, "Banc en bois recyclé", products[0].Name)
	resp.Body.Close()

	// Create a product
	newProduct := map[string]interface{}{
		"name":        "Vase en céramique",
		"description": "Céramique émaillée",
		"price":       85.0,
		"stock":       12,
		"category":    "Céramique",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/products", token, newProduct)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var createdProduct models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&createdProduct))
	assert.NotZero(t, createdProduct.ID)
	resp.Body.Close()

	// Fetch it back
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", createdProduct.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Delete it and verify the not-found afterwards
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", createdProduct.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", createdProduct.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCartAndCheckoutFlow(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	token := registerAndLogin(t, app, "Claire Fontaine", "claire@example.com", "password123")

	// Empty cart to start
	resp := doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cartResp map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cartResp))
	assert.EqualValues(t, 0, cartResp["item_count"])
	resp.Body.Close()

	// Checkout with an empty cart is refused
	checkoutReq := map[string]interface{}{
		"user":             map[string]string{"name": "Claire Fontaine", "email": "claire@example.com"},
		"delivery_address": "12 rue des Artisans, 75011 Paris",
		"shipping_method":  "standard",
		"payment_method":   "paypal",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutReq)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Add two lines, the second merging into the first
	line := map[string]interface{}{
		"product_id": 1,
		"quantity":   2,
		"price":      10.0,
		"name":       "Bol en grès",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, line)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	secondLine := map[string]interface{}{
		"product_id": 2,
		"quantity":   1,
		"price":      5.0,
		"name":       "Dessous de verre",
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, secondLine)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cartResp))
	assert.EqualValues(t, 3, cartResp["item_count"])
	assert.InDelta(t, 25.0, cartResp["subtotal"].(float64), 0.001)
	resp.Body.Close()

	// Promo preview
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/promo", token, map[string]string{"code": "WELCOME10"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var promoResp map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&promoResp))
	assert.InDelta(t, 2.5, promoResp["amount"].(float64), 0.001)
	resp.Body.Close()

	// Place the order with the promo applied
	checkoutReq["promo_code"] = "WELCOME10"
	resp = doJSON(t, app, http.MethodPost, "/api/v1/checkout", token, checkoutReq)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.InDelta(t, 22.5, order.Total, 0.001)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	resp.Body.Close()

	// The cart is now empty
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart", token, nil)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&cartResp))
	assert.EqualValues(t, 0, cartResp["item_count"])
	resp.Body.Close()

	// The order shows up in the history
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ordersResp struct {
		Orders []models.Order `json:"orders"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&ordersResp))
	assert.Len(t, ordersResp.Orders, 1)
	assert.Equal(t, order.ID, ordersResp.Orders[0].ID)
	resp.Body.Close()

	// Order detail
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Another user cannot see it
	otherToken := registerAndLogin(t, app, "Marc Petit", "marc@example.com", "password123")
	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/orders", otherToken, nil)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&ordersResp))
	assert.Empty(t, ordersResp.Orders)
	resp.Body.Close()
}

func TestCartQuantityAndRemove(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	token := registerAndLogin(t, app, "Claire Fontaine", "claire2@example.com", "password123")

	line := map[string]interface{}{
		"product_id": 1,
		"variant":    "naturel",
		"quantity":   2,
		"price":      620.0,
		"name":       "Table basse en chêne",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, line)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Overwrite quantity
	update := map[string]interface{}{"product_id": 1, "variant": "naturel", "quantity": 5}
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items", token, update)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updateResp map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updateResp))
	assert.EqualValues(t, 5, updateResp["item_count"])
	resp.Body.Close()

	// Quantity zero removes the line
	update["quantity"] = 0
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/cart/items", token, update)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updateResp))
	assert.EqualValues(t, 0, updateResp["item_count"])
	resp.Body.Close()

	// Add again, then remove via DELETE
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/items", token, line)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/cart/items?product_id=1&variant=naturel", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updateResp))
	assert.EqualValues(t, 0, updateResp["item_count"])
	resp.Body.Close()
}

func TestProfilePreferences(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)
	token := registerAndLogin(t, app, "Sophie Dupont", "sophie2@example.com", "password123")

	// Defaults
	resp := doJSON(t, app, http.MethodGet, "/api/v1/profile/preferences", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var prefs map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&prefs))
	assert.Equal(t, "grid", prefs["view"])
	resp.Body.Close()

	// Update
	resp = doJSON(t, app, http.MethodPut, "/api/v1/profile/preferences", token, map[string]string{"view": "list", "user_type": "artisan"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&prefs))
	assert.Equal(t, "list", prefs["view"])
	assert.Equal(t, "artisan", prefs["user_type"])
	resp.Body.Close()

	// Invalid value is refused
	resp = doJSON(t, app, http.MethodPut, "/api/v1/profile/preferences", token, map[string]string{"view": "carousel"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestEndpointsRequireAuth(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	for _, path := range []string{"/api/v1/products", "/api/v1/cart", "/api/v1/orders"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "expected 401 for %s without token", path)
		resp.Body.Close()
	}
}
