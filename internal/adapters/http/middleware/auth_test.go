package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/wallethub/ledger/internal/domain/ids"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func validAuthConfig() *AuthConfig {
	return &AuthConfig{
		TokenValidator: func(token string) (*AuthClaims, error) {
			return &AuthClaims{
				APIKeyID: ids.APIKeyID("key-123"),
				Scopes:   ids.NewScopeSet("transfer:create", "hold:create"),
				Exp:      time.Now().Add(time.Hour),
			}, nil
		},
	}
}

func TestAuth_Success(t *testing.T) {
	router := gin.New()
	router.Use(Auth(validAuthConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	router := gin.New()
	router.Use(Auth(validAuthConfig()))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidHeaderFormat(t *testing.T) {
	router := gin.New()
	router.Use(Auth(validAuthConfig()))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_EmptyToken(t *testing.T) {
	router := gin.New()
	router.Use(Auth(validAuthConfig()))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidatorError(t *testing.T) {
	router := gin.New()
	router.Use(Auth(&AuthConfig{
		TokenValidator: func(token string) (*AuthClaims, error) {
			return nil, errors.New("malformed token")
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	router := gin.New()
	router.Use(Auth(&AuthConfig{
		TokenValidator: func(token string) (*AuthClaims, error) {
			return &AuthClaims{
				APIKeyID: ids.APIKeyID("key-123"),
				Exp:      time.Now().Add(-time.Hour),
			}, nil
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MissingAPIKeyID(t *testing.T) {
	router := gin.New()
	router.Use(Auth(&AuthConfig{
		TokenValidator: func(token string) (*AuthClaims, error) {
			return &AuthClaims{Exp: time.Now().Add(time.Hour)}, nil
		},
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer token-without-sub")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_SkipPaths(t *testing.T) {
	config := validAuthConfig()
	config.SkipPaths = []string{"/healthz"}

	router := gin.New()
	router.Use(Auth(config))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_ContextValues(t *testing.T) {
	router := gin.New()
	router.Use(Auth(validAuthConfig()))
	router.GET("/test", func(c *gin.Context) {
		keyID := GetAuthAPIKeyID(c)
		scopes := GetAuthScopes(c)

		assert.Equal(t, ids.APIKeyID("key-123"), keyID)
		assert.True(t, scopes.Has(ids.Scope("transfer:create")))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetAuthAPIKeyID_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, ids.APIKeyID(""), GetAuthAPIKeyID(c))
}

func TestGetAuthAPIKeyID_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(AuthAPIKeyIDKey, 12345)

	assert.Equal(t, ids.APIKeyID(""), GetAuthAPIKeyID(c))
}

func TestGetAuthScopes_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetAuthScopes(c))
}

func TestNewJWTTokenValidator_RoundTrip(t *testing.T) {
	validator := NewJWTTokenValidator("test-secret", "wallethub-ledger")

	token, err := GenerateJWT("test-secret", "wallethub-ledger", "key-456", []string{"transfer:create", "refund:create"}, time.Hour)
	assert.NoError(t, err)

	claims, err := validator(token)
	assert.NoError(t, err)
	assert.Equal(t, ids.APIKeyID("key-456"), claims.APIKeyID)
	assert.True(t, claims.Scopes.Has(ids.Scope("transfer:create")))
	assert.True(t, claims.Scopes.Has(ids.Scope("refund:create")))
	assert.True(t, claims.Exp.After(time.Now()))
}

func TestNewJWTTokenValidator_WrongIssuer(t *testing.T) {
	validator := NewJWTTokenValidator("test-secret", "wallethub-ledger")

	token, err := GenerateJWT("test-secret", "someone-else", "key-456", nil, time.Hour)
	assert.NoError(t, err)

	_, err = validator(token)
	assert.Error(t, err)
}

func TestNewJWTTokenValidator_WrongSecret(t *testing.T) {
	token, err := GenerateJWT("correct-secret", "wallethub-ledger", "key-456", nil, time.Hour)
	assert.NoError(t, err)

	validator := NewJWTTokenValidator("wrong-secret", "wallethub-ledger")
	_, err = validator(token)
	assert.Error(t, err)
}

func TestNewJWTTokenValidator_MissingSubject(t *testing.T) {
	validator := NewJWTTokenValidator("test-secret", "")

	token, err := GenerateJWT("test-secret", "", "", nil, time.Hour)
	assert.NoError(t, err)

	_, err = validator(token)
	assert.Error(t, err)
}
