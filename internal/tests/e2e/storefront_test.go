//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/driveline-motors/apiserver/config"
	"github.com/driveline-motors/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		shutdownServer(srv)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	shutdownServer(srv)
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestStorefrontLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("admin_%d", time.Now().UnixNano())
	password := "Testpass123!"

	adminToken, err := signupUser(t, baseURL, username, password)
	if err != nil {
		t.Fatalf("signup user: %v", err)
	}

	if err := promoteUserToAdmin(username); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	car, err := createCar(t, baseURL, adminToken)
	if err != nil {
		t.Fatalf("create car: %v", err)
	}
	if car.ID == 0 {
		t.Fatalf("expected car ID to be set")
	}
	if car.Condition != "used" {
		t.Fatalf("condition not normalized: %q", car.Condition)
	}

	results, err := searchCars(t, baseURL, "Supra")
	if err != nil {
		t.Fatalf("search cars: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected created car in search results")
	}

	orderID, err := checkoutAsGuest(t, baseURL, car)
	if err != nil {
		t.Fatalf("guest checkout: %v", err)
	}

	updated, err := updateOrderStatus(t, baseURL, adminToken, orderID, "processing")
	if err != nil {
		t.Fatalf("update order status: %v", err)
	}
	if updated.OrderStatus != "processing" {
		t.Fatalf("status not applied: %q", updated.OrderStatus)
	}

	fetched, err := getOrder(t, baseURL, adminToken, orderID)
	if err != nil {
		t.Fatalf("get order as admin: %v", err)
	}
	if fetched.ID != orderID {
		t.Fatalf("unexpected order id: %d", fetched.ID)
	}

	if err := checkOverviewStats(t, baseURL, adminToken); err != nil {
		t.Fatalf("overview stats: %v", err)
	}

	if err := deleteCar(t, baseURL, adminToken, car.ID); err != nil {
		t.Fatalf("delete car: %v", err)
	}
}

type carResponse struct {
	ID        int    `json:"id"`
	Model     string `json:"model"`
	Condition string `json:"condition"`
}

type orderResponse struct {
	ID          int    `json:"id"`
	OrderStatus string `json:"order_status"`
}

type authResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

func signupUser(t *testing.T, baseURL, username, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/user/signup", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("signup status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in signup response")
	}
	return parsed.Token, nil
}

func promoteUserToAdmin(username string) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = db.ExecContext(ctx, "UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1", username)
	return err
}

func createCar(t *testing.T, baseURL, token string) (carResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("model", "Supra")
	_ = writer.WriteField("brand", "Toyota")
	_ = writer.WriteField("type", "coupe")
	_ = writer.WriteField("manufacture_year", "1998")
	_ = writer.WriteField("price", "35000")
	_ = writer.WriteField("engine_capacity", "3.0")
	_ = writer.WriteField("wheel_drive_type", "RWD")
	_ = writer.WriteField("engine_type", "petrol")
	_ = writer.WriteField("transmission_type", "manual")
	_ = writer.WriteField("condition", "Used")
	_ = writer.WriteField("description", "Twin-turbo legend, one owner.")
	if err := writer.Close(); err != nil {
		return carResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/car/", &body)
	if err != nil {
		return carResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return carResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return carResponse{}, fmt.Errorf("create car status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed carResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return carResponse{}, err
	}
	return parsed, nil
}

func searchCars(t *testing.T, baseURL, query string) ([]carResponse, error) {
	t.Helper()

	resp, err := http.Get(baseURL + "/api/car/search?query=" + query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed []carResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func checkoutAsGuest(t *testing.T, baseURL string, car carResponse) (int, error) {
	t.Helper()

	payload := map[string]any{
		"items": []map[string]any{
			{"car_id": car.ID, "name": "Toyota Supra", "price": "35000", "quantity": 1},
		},
		"total_amount": "35000",
		"shipping_address": map[string]string{
			"first_name": "Guest",
			"last_name":  "Buyer",
			"email":      "guest@example.com",
			"street":     "1 Main St",
			"city":       "Springfield",
			"state":      "IL",
			"zip_code":   "62704",
			"country":    "USA",
			"phone":      "555-0100",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := http.Post(baseURL+"/api/order/", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("checkout status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	if parsed.OrderStatus != "pending" {
		return 0, fmt.Errorf("new order status %q, want pending", parsed.OrderStatus)
	}
	return parsed.ID, nil
}

func updateOrderStatus(t *testing.T, baseURL, token string, orderID int, status string) (orderResponse, error) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return orderResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/order/%d/status", baseURL, orderID), bytes.NewReader(body))
	if err != nil {
		return orderResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return orderResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return orderResponse{}, fmt.Errorf("update status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return orderResponse{}, err
	}
	return parsed, nil
}

func getOrder(t *testing.T, baseURL, token string, orderID int) (orderResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/order/%d", baseURL, orderID), nil)
	if err != nil {
		return orderResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return orderResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return orderResponse{}, fmt.Errorf("get order status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return orderResponse{}, err
	}
	return parsed, nil
}

func checkOverviewStats(t *testing.T, baseURL, token string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/admin/stats/overview", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("overview status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed struct {
		TotalOrders int `json:"total_orders"`
		TotalUsers  int `json:"total_users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if parsed.TotalOrders < 1 || parsed.TotalUsers < 1 {
		return fmt.Errorf("unexpected overview counts: %+v", parsed)
	}
	return nil
}

func deleteCar(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/car/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete car status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New("file://"+migrationsPath, buildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "driveline")
	_ = os.Setenv("DB_PASSWORD", "driveline")
	_ = os.Setenv("DB_NAME", "driveline")
	_ = os.Setenv("DB_USE_SSL", "false")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func shutdownServer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
