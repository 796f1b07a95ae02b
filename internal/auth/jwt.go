package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/session"
)

// Context keys and cookie names
const (
	UserIDKey   = "user_id"
	SessionKey  = "session"
	BearerAuth  = "bearer_auth"
	TokenCookie = "auth_token"
	CSRFCookie  = "csrf_token"
	CSRFHeader  = "X-CSRF-Token"

	accessTTL  = 24 * time.Hour
	refreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

func (j *JWTService) sign(claims Claims, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims.TokenType = tokenType
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// GenerateToken generates an access token valid for 24 hours
func (j *JWTService) GenerateToken(claims Claims) (string, time.Time, error) {
	return j.sign(claims, tokenTypeAccess, accessTTL)
}

// GenerateRefreshToken generates a refresh token valid for 7 days
func (j *JWTService) GenerateRefreshToken(claims Claims) (string, time.Time, error) {
	return j.sign(claims, tokenTypeRefresh, refreshTTL)
}

func (j *JWTService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ValidateToken validates an access token and returns claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns claims
func (j *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, fmt.Errorf("not a refresh token")
	}
	return claims, nil
}

// NewCSRFToken returns a random token for the double-submit cookie
func NewCSRFToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SetAuthCookies writes the access token and CSRF cookies
func SetAuthCookies(c *gin.Context, token, csrf string, expiresAt time.Time, secure bool) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, token, maxAge, "/", "", secure, true)
	c.SetCookie(CSRFCookie, csrf, maxAge, "/", "", secure, false)
}

// ClearAuthCookies expires both auth cookies
func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(CSRFCookie, "", -1, "/", "", secure, false)
}

// JWTMiddleware validates the access token from the cookie or Authorization header and
// loads the session it names. Tokens whose session was signed out are rejected.
func JWTMiddleware(service *JWTService, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := false
		tokenString, err := c.Cookie(TokenCookie)
		if err != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
				c.Abort()
				return
			}

			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
				c.Abort()
				return
			}
			bearer = true
		}

		claims, err := service.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			}
			c.Abort()
			return
		}
		if sess.UserID != claims.UserID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set(SessionKey, sess)
		c.Set(BearerAuth, bearer)
		c.Next()
	}
}

// CurrentSession returns the session loaded by JWTMiddleware
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// CSRFMiddleware validates CSRF tokens for state-changing operations. Requests that
// authenticated with a bearer header carry no ambient credentials and are exempt.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}
		if c.GetBool(BearerAuth) {
			c.Next()
			return
		}

		csrfCookie, err := c.Cookie(CSRFCookie)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token required in cookie"})
			c.Abort()
			return
		}

		csrfHeader := c.GetHeader(CSRFHeader)
		if csrfHeader == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token required in X-CSRF-Token header"})
			c.Abort()
			return
		}

		if csrfCookie != csrfHeader {
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token mismatch"})
			c.Abort()
			return
		}

		c.Next()
	}
}
