// Package auth resolves the current user from bearer tokens issued by the user directory.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
)

const userContextKey = "auth.user"

var (
	// ErrUnauthenticated is returned when no valid user can be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("access token expired")
)

// Claims are the user directory's access token claims. The subject is the user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens.
type Verifier struct {
	secret   []byte
	loginURL string
	parser   *jwt.Parser
	logger   *zap.Logger
}

// NewVerifier builds a verifier from the auth configuration.
func NewVerifier(cfg config.AuthConfig, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		loginURL: cfg.LoginURL,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
		logger:   logger,
	}
}

// LoginURL is where unauthenticated callers are sent.
func (v *Verifier) LoginURL() string {
	return v.loginURL
}

// Parse validates token and returns the user it identifies.
func (v *Verifier) Parse(token string) (models.User, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.User{}, ErrTokenExpired
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return models.User{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return models.User{ID: claims.Subject, Email: claims.Email}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved user on the gin context.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			v.reject(c, ErrUnauthenticated)
			return
		}

		user, err := v.Parse(strings.TrimSpace(token))
		if err != nil {
			v.logger.Debug("rejected bearer token", zap.Error(err))
			v.reject(c, err)
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

func (v *Verifier) reject(c *gin.Context, err error) {
	msg := "authentication required"
	if errors.Is(err, ErrTokenExpired) {
		msg = "session expired"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     msg,
		"login_url": v.loginURL,
	})
}

// SetUser stores user as the request's authenticated user.
func SetUser(c *gin.Context, user models.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the user stored by Middleware.
func CurrentUser(c *gin.Context) (models.User, error) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return models.User{}, ErrUnauthenticated
	}
	user, ok := value.(models.User)
	if !ok || user.ID == "" {
		return models.User{}, ErrUnauthenticated
	}
	return user, nil
}
