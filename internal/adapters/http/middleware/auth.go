package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wallethub/ledger/internal/domain/ids"
)

const (
	// AuthAPIKeyIDKey is the gin context key the caller's api-key-id is
	// stashed under, once the bearer token validates.
	AuthAPIKeyIDKey = "auth_api_key_id"
	// AuthScopesKey is the gin context key the token's scope claim (if
	// any) is stashed under. It is advisory only: every write operation
	// re-checks scope against the API key's store record before its
	// transaction opens, because a token's scope claim can go stale relative to what the
	// key was provisioned with.
	AuthScopesKey = "auth_scopes"
)

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	// TokenValidator validates a bearer token and returns the claims it
	// carries. In production this is NewJWTTokenValidator's return value.
	TokenValidator func(token string) (*AuthClaims, error)
	// SkipPaths bypasses auth entirely, for health/readiness/metrics.
	SkipPaths []string
}

// AuthClaims is what a validated bearer token yields: the api-key-id the
// caller authenticated as (the JWT's "sub"), the scopes it claims (the
// "scope" claim, space-separated), and its expiry.
type AuthClaims struct {
	APIKeyID ids.APIKeyID
	Scopes   ids.ScopeSet
	Exp      time.Time
}

// Auth validates the Authorization: Bearer <token> header and, on
// success, stashes the resolved api-key-id in the gin context for
// handlers to read via GetAuthAPIKeyID.
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithUnauthorized(c, "invalid authorization header format")
			return
		}

		token := parts[1]
		if token == "" {
			abortWithUnauthorized(c, "token is required")
			return
		}

		claims, err := config.TokenValidator(token)
		if err != nil {
			abortWithUnauthorized(c, "invalid or expired token")
			return
		}

		if claims.Exp.Before(time.Now()) {
			abortWithUnauthorized(c, "token has expired")
			return
		}

		if claims.APIKeyID == "" {
			abortWithUnauthorized(c, "token does not resolve to an api key")
			return
		}

		c.Set(AuthAPIKeyIDKey, claims.APIKeyID)
		c.Set(AuthScopesKey, claims.Scopes)
		c.Next()
	}
}

func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// GetAuthAPIKeyID returns the api-key-id Auth resolved for this request,
// or the zero value if the request was never authenticated (a skipped
// path).
func GetAuthAPIKeyID(c *gin.Context) ids.APIKeyID {
	if v, exists := c.Get(AuthAPIKeyIDKey); exists {
		if keyID, ok := v.(ids.APIKeyID); ok {
			return keyID
		}
	}
	return ""
}

// GetAuthScopes returns the scope claim Auth resolved for this request.
// Advisory only — see AuthScopesKey.
func GetAuthScopes(c *gin.Context) ids.ScopeSet {
	if v, exists := c.Get(AuthScopesKey); exists {
		if scopes, ok := v.(ids.ScopeSet); ok {
			return scopes
		}
	}
	return nil
}

// NewJWTTokenValidator builds a production token validator using HS256
// with the given secret, rejecting tokens whose issuer doesn't match
// when issuer is non-empty.
func NewJWTTokenValidator(secret string, issuer string) func(token string) (*AuthClaims, error) {
	return func(tokenString string) (*AuthClaims, error) {
		parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok || !parsed.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}

		if issuer != "" {
			if iss, _ := claims["iss"].(string); iss != issuer {
				return nil, fmt.Errorf("invalid token issuer")
			}
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return nil, fmt.Errorf("missing api key id (sub) in token")
		}

		var scopes ids.ScopeSet
		switch raw := claims["scope"].(type) {
		case string:
			scopes = ids.NewScopeSet(strings.Fields(raw)...)
		case []interface{}:
			scopeStrs := make([]string, 0, len(raw))
			for _, s := range raw {
				if str, ok := s.(string); ok {
					scopeStrs = append(scopeStrs, str)
				}
			}
			scopes = ids.NewScopeSet(scopeStrs...)
		}

		exp := time.Time{}
		if expFloat, ok := claims["exp"].(float64); ok {
			exp = time.Unix(int64(expFloat), 0)
		}

		return &AuthClaims{
			APIKeyID: ids.APIKeyID(sub),
			Scopes:   scopes,
			Exp:      exp,
		}, nil
	}
}

// GenerateJWT creates a signed HS256 token carrying apiKeyID as the
// subject and scopes as a space-separated scope claim. Used by the
// operator-facing token-issuance flow (out of band, not an HTTP route).
func GenerateJWT(secret, issuer, apiKeyID string, scopes []string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   apiKeyID,
		"scope": strings.Join(scopes, " "),
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
