// Package middleware contains the gin middleware of the API.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dbmodels "github.com/wellness-in-schools/video-library/internal/db/models"
	"github.com/wellness-in-schools/video-library/internal/models"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

const (
	headerAuth   = "Authorization"
	bearerScheme = "bearer"

	ctxKeyUserID = "auth.userID"
	ctxKeyRole   = "auth.role"
)

// Claims are the bearer token claims issued by the auth service. Subject is
// the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTAuth verifies HS256 bearer tokens.
type JWTAuth struct {
	secret []byte
}

// NewJWTAuth creates a verifier for tokens signed with secret.
func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret)}
}

// Parse validates tokenString and returns its claims.
func (a *JWTAuth) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Sign issues a token for userID. Only tests and tooling issue tokens here;
// production tokens come from the auth service.
func (a *JWTAuth) Sign(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// RequireUser rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func (a *JWTAuth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(headerAuth))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims, err := a.Parse(token)
		if err != nil {
			logger.L().Debug("rejected bearer token",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			abortWithError(c, http.StatusUnauthorized, "Token is not valid")
			return
		}

		userID, err := uuid.Parse(strings.TrimSpace(claims.Subject))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Token is not valid")
			return
		}

		role := claims.Role
		if role == "" {
			role = dbmodels.RoleUser
		}
		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyRole, role)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func (a *JWTAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != dbmodels.RoleAdmin {
			abortWithError(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Role returns the authenticated caller's role, or "" when unauthenticated.
func Role(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}

// SetUser stores an identity on c the way RequireUser does.
func SetUser(c *gin.Context, userID uuid.UUID, role string) {
	c.Set(ctxKeyUserID, userID)
	c.Set(ctxKeyRole, role)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearerScheme {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
