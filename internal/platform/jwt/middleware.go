package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"video_backend/internal/feature/auth/domain/entity"
	authusecase "video_backend/internal/feature/auth/usecase"
	"video_backend/internal/platform/http/response"
)

// contextUserKey is the gin context key holding the resolved *entity.User.
// It is written only by this package; handlers read it through CurrentUser.
const contextUserKey = "jwtmw.currentUser"

const bearerPrefix = "Bearer "

// TokenVerifier extracts the user id from a bearer token.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// UserFinder resolves a verified user id to a stored user.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*entity.User, error)
}

// rejection describes why a request could not be authenticated.
type rejection struct {
	status  int
	message string
}

var (
	errMissingToken = rejection{http.StatusUnauthorized, "missing bearer token"}
	errBadToken     = rejection{http.StatusUnauthorized, "invalid token"}
	errUnknownUser  = rejection{http.StatusUnauthorized, "user not found"}
	errLookupFailed = rejection{http.StatusInternalServerError, response.InternalErrorMessage}
)

// AuthRequired returns a Gin middleware that admits only requests carrying a
// valid bearer token for an existing user. On success the user is attached to
// the context; on any failure the request is aborted before the next handler runs.
func AuthRequired(verifier TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, rej := authenticate(c, verifier, users)
		if rej != nil {
			response.Abort(c, rej.status, rej.message)
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, rej := authenticate(c, verifier, users); rej == nil {
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired or OptionalAuth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}

// SetCurrentUser attaches user to c. It exists for handler tests that bypass the middleware.
func SetCurrentUser(c *gin.Context, user *entity.User) {
	c.Set(contextUserKey, user)
}

func authenticate(c *gin.Context, verifier TokenVerifier, users UserFinder) (*entity.User, *rejection) {
	// 1. Get Authorization header
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return nil, &errMissingToken
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	if tokenStr == "" {
		return nil, &errMissingToken
	}

	// 2. Verify signature and extract the user id
	userID, err := verifier.Verify(tokenStr)
	if err != nil {
		return nil, &errBadToken
	}

	// 3. Resolve the user; it may have been removed after the token was issued
	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, authusecase.ErrUserNotFound) {
			return nil, &errUnknownUser
		}
		slog.Error("failed to resolve token user", "error", err, "user_id", userID)
		return nil, &errLookupFailed
	}

	slog.Debug("request authenticated", "user_id", user.ID)
	return user, nil
}
