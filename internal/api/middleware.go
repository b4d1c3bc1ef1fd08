package api

import (
	"errors"
	"net/http"
	"strconv"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ctxUserKey = "current_user"

// AuthMiddleware resolves the caller from the X-User-ID header set by the
// identity provider in front of this service. Only the authorization
// decision lives here; authentication mechanics are upstream.
type AuthMiddleware struct {
	userRepo repository.UserRepository
	logger   *logrus.Logger
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(db *gorm.DB, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{userRepo: repository.NewUserRepository(db), logger: logger}
}

// loadUser resolves and stores the caller; it aborts the request itself and
// reports success, so the middlewares below decide when to continue.
func (m *AuthMiddleware) loadUser(c *gin.Context) *model.User {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
		return nil
	}
	user, err := m.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return nil
		}
		m.logger.WithError(err).Error("load user failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	c.Set(ctxUserKey, user)
	return user
}

// RequireUser loads the calling user into the request context; 401 when the
// header is missing or unknown.
func (m *AuthMiddleware) RequireUser(c *gin.Context) {
	if m.loadUser(c) == nil {
		return
	}
	c.Next()
}

// RequireAdmin is RequireUser plus the elevated-role gate; settlement and
// lifecycle operations are privileged.
func (m *AuthMiddleware) RequireAdmin(c *gin.Context) {
	user := m.loadUser(c)
	if user == nil {
		return
	}
	if user.Role != model.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": model.ErrForbidden.Error()})
		return
	}
	c.Next()
}

// CurrentUser returns the user RequireUser stored on the context, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// statusForError maps domain errors onto HTTP codes. State-conflict errors
// are 409: expected outcomes, reported as-is, never as server failures.
func statusForError(err error) int {
	switch {
	case errors.Is(err, model.ErrPollNotFound),
		errors.Is(err, model.ErrMatchNotFound),
		errors.Is(err, model.ErrTeamNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrOptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateVote),
		errors.Is(err, model.ErrPollClosed),
		errors.Is(err, model.ErrAlreadySettled),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrVotesExist),
		errors.Is(err, model.ErrTeamReferenced):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status; only real infrastructure failures
// reach the error log.
func respondError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Errorf("%s failed", op)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
