package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jkc-mycode/spa-recruit-3-layered/internal/auth"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/database"
	"github.com/jkc-mycode/spa-recruit-3-layered/internal/resume"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	svc, err := auth.NewAuthService(privatePEM, publicPEM, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// 登录保护相关的 redis 调用在连接失败时全部降级放行，
// 测试里用一个连不上的客户端即可。
func newDeadRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

func newAuthTestHandler(t *testing.T, db *gorm.DB) *AuthHandler {
	t.Helper()
	return NewAuthHandler(db, newTestAuthService(t), newDeadRedis(t), nil, 10, 5, 15*time.Minute)
}

func validSignUpPayload() gin.H {
	return gin.H{
		"email":           "alice@example.com",
		"password":        "abc12!",
		"passwordConfirm": "abc12!",
		"name":            "alice",
		"age":             28,
		"gender":          "FEMALE",
	}
}

func TestSignUp(t *testing.T) {
	db := newTestDB(t, "api_sign_up")
	h := newAuthTestHandler(t, db)

	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", validSignUpPayload(), resume.Identity{})

	h.SignUp(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var user database.User
	if err := db.Where("email = ?", "alice@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Role != string(resume.RoleApplicant) {
		t.Fatalf("role = %q, want APPLICANT", user.Role)
	}
	if user.PasswordHash == "abc12!" || !auth.CheckPasswordHash("abc12!", user.PasswordHash) {
		t.Fatal("password must be stored as a verifiable hash")
	}
	if strings.Contains(w.Body.String(), user.PasswordHash) {
		t.Fatal("response must not leak the password hash")
	}
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	db := newTestDB(t, "api_sign_up_weak")
	h := newAuthTestHandler(t, db)

	payload := validSignUpPayload()
	payload["password"] = "abcdef"
	payload["passwordConfirm"] = "abcdef"
	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", payload, resume.Identity{})

	h.SignUp(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignUpRejectsPasswordMismatch(t *testing.T) {
	db := newTestDB(t, "api_sign_up_mismatch")
	h := newAuthTestHandler(t, db)

	payload := validSignUpPayload()
	payload["passwordConfirm"] = "abc13!"
	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", payload, resume.Identity{})

	h.SignUp(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t, "api_sign_up_duplicate")
	h := newAuthTestHandler(t, db)

	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", validSignUpPayload(), resume.Identity{})
	h.SignUp(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("first sign-up expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	c, w = newJSONContext(t, http.MethodPost, "/api/auth/sign-up", validSignUpPayload(), resume.Identity{})
	h.SignUp(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("second sign-up expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignIn(t *testing.T) {
	db := newTestDB(t, "api_sign_in")
	h := newAuthTestHandler(t, db)

	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", validSignUpPayload(), resume.Identity{})
	h.SignUp(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("sign-up expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	c, w = newJSONContext(t, http.MethodPost, "/api/auth/sign-in", gin.H{
		"email":    "alice@example.com",
		"password": "abc12!",
	}, resume.Identity{})
	h.SignIn(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Tokens tokenResponse `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.Tokens.AccessToken == "" || envelope.Data.Tokens.RefreshToken == "" {
		t.Fatalf("tokens missing: %+v", envelope.Data.Tokens)
	}

	claims, err := h.authService.ValidateToken(envelope.Data.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate issued access token: %v", err)
	}
	if claims.TokenType != auth.TokenTypeAccess {
		t.Fatalf("token type = %q, want access", claims.TokenType)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	db := newTestDB(t, "api_sign_in_wrong")
	h := newAuthTestHandler(t, db)

	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-up", validSignUpPayload(), resume.Identity{})
	h.SignUp(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("sign-up expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	c, w = newJSONContext(t, http.MethodPost, "/api/auth/sign-in", gin.H{
		"email":    "alice@example.com",
		"password": "wrong1!",
	}, resume.Identity{})
	h.SignIn(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	db := newTestDB(t, "api_sign_in_unknown")
	h := newAuthTestHandler(t, db)

	c, w := newJSONContext(t, http.MethodPost, "/api/auth/sign-in", gin.H{
		"email":    "ghost@example.com",
		"password": "abc12!",
	}, resume.Identity{})
	h.SignIn(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", w.Code, w.Body.String())
	}
}
