package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []*service.Mail
}

func (m *captureMailer) Send(_ context.Context, mail *service.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *captureMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Data["code"]
}

type staticMediaHost struct{}

func (staticMediaHost) Upload(_ context.Context, media *service.Media) (*models.MediaAsset, error) {
	return &models.MediaAsset{
		Host:         "static",
		PublicID:     "asset1",
		SecureURL:    "https://cdn.example.com/asset1." + media.Kind.Extension,
		ResourceType: media.Type,
	}, nil
}

type testServer struct {
	app    *fiber.App
	mailer *captureMailer
	cfg    config.Config
}

func newTestServer(t *testing.T, graphURL string) *testServer {
	t.Helper()
	cfg := config.Config{
		AppName:            "crosspost",
		SecretKey:          "test-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		TokenEncryptionKey: "0123456789abcdef",
		LoginRateLimit:     5,
	}

	users := repository.NewMemoryUserRepository()
	tenants := repository.NewMemoryTenantRepository()
	posts := repository.NewMemorySocialPostRepository()
	mailer := &captureMailer{}

	creds := service.NewCredentialsService(tenants, utils.NewTokenCipher(cfg.TokenEncryptionKey))
	app := NewApp(Deps{
		Cfg:         cfg,
		Auth:        service.NewAuthService(cfg, users, mailer),
		Users:       service.NewUserService(users),
		Credentials: creds,
		Posts: service.NewPostService(
			creds,
			posts,
			staticMediaHost{},
			service.NewInstagramService(graphURL, 2, time.Millisecond),
			service.NewFacebookService(graphURL),
		),
	})

	return &testServer{app: app, mailer: mailer, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			reader = strings.NewReader(string(raw))
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

// register signs a user up and in, returning its id and access token.
func (s *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()
	code, body := s.do(t, fiber.MethodPost, "/api/signup", "", map[string]string{
		"name": "Ada", "email": email, "password": "password123", "passwordConfirm": "password123",
	})
	if code != fiber.StatusOK {
		t.Fatalf("signup: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/signin", "", map[string]string{
		"email": email, "password": "password123",
	})
	if code != fiber.StatusOK {
		t.Fatalf("signin: %d %v", code, body)
	}
	return body["user_id"].(string), body["access_token"].(string)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")
	code, body := s.do(t, fiber.MethodGet, "/", "", nil)
	if code != fiber.StatusOK || body["status"] != "Health_check" {
		t.Fatalf("unexpected health response %d %v", code, body)
	}
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	code, body := s.do(t, fiber.MethodPost, "/api/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "short", "passwordConfirm": "short",
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for short password, got %d %v", code, body)
	}

	code, _ = s.do(t, fiber.MethodPost, "/api/signup", "", "{not json")
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", code)
	}

	userID, token := s.register(t, "ada@example.com")

	code, body = s.do(t, fiber.MethodPost, "/api/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "password123", "passwordConfirm": "password123",
	})
	if code != fiber.StatusBadRequest || body["detail"] != "Email is already registered" {
		t.Fatalf("expected duplicate email error, got %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodGet, "/api/user/info", token, nil)
	if code != fiber.StatusOK || body["id"] != userID || body["email"] != "ada@example.com" {
		t.Fatalf("unexpected user info %d %v", code, body)
	}
	if _, leaked := body["password"]; leaked {
		t.Fatalf("password leaked in user info")
	}

	code, _ = s.do(t, fiber.MethodGet, "/api/user/info", "", nil)
	if code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/sendVerification", "", map[string]string{"email": "ada@example.com"})
	if code != fiber.StatusOK {
		t.Fatalf("send verification: %d %v", code, body)
	}
	code, body = s.do(t, fiber.MethodPost, "/api/verify", "", map[string]string{"email": "ada@example.com", "otp": s.mailer.lastCode()})
	if code != fiber.StatusOK || body["message"] != "OTP verification successful. You can now sign in." {
		t.Fatalf("verify: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/forgotPass", "", map[string]string{"email": ""})
	if code != fiber.StatusUnauthorized || body["detail"] != "Invalid Email" {
		t.Fatalf("expected invalid email, got %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/resetPass", "", map[string]string{
		"email": "ada@example.com", "password": "newpassword1", "passwordConfirm": "newpassword1",
	})
	if code != fiber.StatusOK || body["access_token"] == "" {
		t.Fatalf("reset: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/refresh", "", map[string]string{"refresh_token": body["refresh_token"].(string)})
	if code != fiber.StatusOK || body["access_token"] == "" {
		t.Fatalf("refresh: %d %v", code, body)
	}
}

func TestCredentialRoutesRequireOwnership(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")
	userID, token := s.register(t, "ada@example.com")
	otherID, _ := s.register(t, "bob@example.com")

	payload := map[string]string{"user_id": otherID, "ACCESS_TOKENS": "tok", "IG_USER_ID": "ig1"}
	code, _ := s.do(t, fiber.MethodPost, "/api/save-instagram-credentials", token, payload)
	if code != fiber.StatusForbidden {
		t.Fatalf("expected 403 for another user's id, got %d", code)
	}

	payload["user_id"] = "not-an-id"
	code, body := s.do(t, fiber.MethodPost, "/api/save-instagram-credentials", token, payload)
	if code != fiber.StatusBadRequest || body["detail"] != "Invalid user_id format" {
		t.Fatalf("expected invalid id, got %d %v", code, body)
	}

	code, _ = s.do(t, fiber.MethodGet, "/api/get-credentials/"+otherID, token, nil)
	if code != fiber.StatusForbidden {
		t.Fatalf("expected 403 reading another user's credentials, got %d", code)
	}

	code, body = s.do(t, fiber.MethodGet, "/api/get-credentials/"+userID, token, nil)
	if code != fiber.StatusNotFound || body["detail"] != "User not found" {
		t.Fatalf("expected 404 before save, got %d %v", code, body)
	}
}

func TestCredentialRoutes(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")
	userID, token := s.register(t, "ada@example.com")

	insta := map[string]string{"user_id": userID, "ACCESS_TOKENS": "ig-token", "IG_USER_ID": "ig1"}
	code, body := s.do(t, fiber.MethodPost, "/api/save-instagram-credentials", token, insta)
	if code != fiber.StatusOK || body["message"] != "Instagram credentials saved" || body["id"] == "" {
		t.Fatalf("save instagram: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/save-instagram-credentials", token, insta)
	if code != fiber.StatusOK || body["message"] != "Instagram credentials updated successfully" {
		t.Fatalf("resave instagram: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodGet, "/api/get-instagram-credentials/"+userID, token, nil)
	if code != fiber.StatusOK {
		t.Fatalf("get instagram: %d %v", code, body)
	}
	if got := body["insta_credentials"].(map[string]interface{})["ACCESS_TOKENS"]; got != "ig-token" {
		t.Fatalf("expected unsealed token, got %v", got)
	}

	code, body = s.do(t, fiber.MethodGet, "/api/get-facebook-credentials/"+userID, token, nil)
	if code != fiber.StatusNotFound || body["detail"] != "Facebook credentials not found" {
		t.Fatalf("expected missing facebook credentials, got %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPut, "/api/edit-instagram-credentials", token, insta)
	if code != fiber.StatusOK || body["message"] != "No changes made" {
		t.Fatalf("edit unchanged: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/save-credentials", token, map[string]interface{}{"user_id": userID})
	if code != fiber.StatusConflict || body["detail"] != "Credentials already exist for this user" {
		t.Fatalf("expected conflict, got %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPut, "/api/update-credentials", token, map[string]interface{}{"user_id": userID})
	if code != fiber.StatusBadRequest || body["detail"] != "No credentials provided to update" {
		t.Fatalf("expected empty update error, got %d %v", code, body)
	}

	expiry := time.Now().Add(48 * time.Hour).Unix()
	code, body = s.do(t, fiber.MethodPut, "/api/update-credentials", token, map[string]interface{}{
		"user_id": userID,
		"facebook_credentials": map[string]interface{}{
			"PAGE_ID":          "page1",
			"FACEBOOK_ACCESS":  "fb-token",
			"expiry_timestamp": expiry,
		},
	})
	if code != fiber.StatusOK || body["message"] != "Credentials updated successfully" {
		t.Fatalf("update: %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodGet, "/api/check-token-expiry/"+userID, token, nil)
	if code != fiber.StatusOK || body["status"] != service.TokenStatusExpiring {
		t.Fatalf("check expiry: %d %v", code, body)
	}
}

func TestUploadRoutes(t *testing.T) {
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ig1/media":
			_, _ = w.Write([]byte(`{"id":"container1"}`))
		case "/ig1/media_publish":
			_, _ = w.Write([]byte(`{"id":"igpost1"}`))
		case "/page1/photos":
			_, _ = w.Write([]byte(`{"id":"photo1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"unknown"}}`))
		}
	}))
	defer graph.Close()

	s := newTestServer(t, graph.URL)
	userID, token := s.register(t, "ada@example.com")

	png := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d})

	code, body := s.do(t, fiber.MethodPost, "/api/upload-socialmedia", token, map[string]string{
		"user_id": userID, "caption": "hi", "base64_image": png,
	})
	if code != fiber.StatusNotFound || body["detail"] != "Credentials for this user not found" {
		t.Fatalf("expected missing credentials, got %d %v", code, body)
	}

	code, _ = s.do(t, fiber.MethodPost, "/api/save-credentials", token, map[string]interface{}{
		"user_id":              userID,
		"insta_credentials":    map[string]string{"ACCESS_TOKENS": "ig-token", "IG_USER_ID": "ig1"},
		"facebook_credentials": map[string]string{"PAGE_ID": "page1", "FACEBOOK_ACCESS": "fb-token"},
	})
	if code != fiber.StatusOK {
		t.Fatalf("save credentials: %d", code)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/upload-socialmedia", token, map[string]string{
		"user_id": userID, "caption": "hi", "base64_image": "%%%",
	})
	if code != fiber.StatusBadRequest || body["detail"] != "Invalid base64 image data" {
		t.Fatalf("expected invalid base64, got %d %v", code, body)
	}

	code, body = s.do(t, fiber.MethodPost, "/api/upload-socialmedia", token, map[string]string{
		"user_id": userID, "caption": "hi", "base64_image": png,
	})
	if code != fiber.StatusOK || body["message"] != "Upload successful" {
		t.Fatalf("upload: %d %v", code, body)
	}
	data := body["data"].(map[string]interface{})
	if data["user_id"] != userID || data["media_type"] != models.MediaTypeImage {
		t.Fatalf("unexpected record: %v", data)
	}
	if data["instagram_response"].(map[string]interface{})["id"] != "igpost1" {
		t.Fatalf("unexpected instagram response: %v", data["instagram_response"])
	}
	if data["facebook_response"].(map[string]interface{})["id"] != "photo1" {
		t.Fatalf("unexpected facebook response: %v", data["facebook_response"])
	}
	if _, err := primitive.ObjectIDFromHex(data["_id"].(string)); err != nil {
		t.Fatalf("record id is not an object id: %v", data["_id"])
	}

	code, body = s.do(t, fiber.MethodGet, "/api/social-posts/"+userID, token, nil)
	if code != fiber.StatusOK || len(body["data"].([]interface{})) != 1 {
		t.Fatalf("list posts: %d %v", code, body)
	}
}
