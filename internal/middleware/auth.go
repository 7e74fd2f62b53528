package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Claims operator token claims
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 operator token
func GenerateToken(secret []byte, issuer, operator string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   operator,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ValidateToken parses and verifies an operator token; issuer is checked when non-empty
func ValidateToken(secret []byte, issuer, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware JWT guard for mutating routes
type AuthMiddleware struct {
	secret []byte
	issuer string
	logger *logrus.Logger
}

// NewAuthMiddleware an empty secret leaves RequireAuth open
func NewAuthMiddleware(secret, issuer string, logger *logrus.Logger) *AuthMiddleware {
	if secret == "" {
		logger.Warn("⚠️ JWT secret not set, mutating routes are unauthenticated")
	}
	return &AuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
	}
}

// Enabled reports whether tokens are checked
func (a *AuthMiddleware) Enabled() bool {
	return len(a.secret) > 0
}

// RequireAuth JWT
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.reject(c, "Authentication required", "Missing Authorization header. Please provide a valid JWT token.", "MISSING_AUTH_HEADER", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.reject(c, "Invalid authorization format", "Authorization header must be in format: Bearer <token>", "INVALID_AUTH_FORMAT", nil)
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			a.reject(c, "Empty token", "Token cannot be empty", "EMPTY_TOKEN", nil)
			return
		}

		claims, err := ValidateToken(a.secret, a.issuer, tokenString)
		if err != nil {
			a.reject(c, "Invalid or expired token", err.Error(), "INVALID_TOKEN", err)
			return
		}

		c.Set("operator", claims.Operator)
		a.logger.WithFields(logrus.Fields{
			"path":     c.Request.URL.Path,
			"method":   c.Request.Method,
			"operator": claims.Operator,
		}).Debug("JWT success")
		c.Next()
	}
}

func (a *AuthMiddleware) reject(c *gin.Context, errMsg, message, code string, cause error) {
	entry := a.logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   code,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Warn("JWT failed")

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   errMsg,
		"message": message,
		"code":    code,
	})
}
