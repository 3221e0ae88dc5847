package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/models"
	"github.com/rentyatra/rentyatra-api/services"
)

// CurrentUserKey is the gin context key holding the resolved *models.User
const CurrentUserKey = "current_user"

// RequireUser resolves the token subject to a registered account and rejects
// blocked or inactive accounts
func RequireUser(users services.IdentityDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
			return
		}

		user, err := users.FindByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if services.IsKind(err, services.KindNotFound) {
				abort(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create your profile first.")
				return
			}
			abort(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
			return
		}

		if !user.CanInteract() {
			abort(c, http.StatusForbidden, "ACCOUNT_BLOCKED", "Your account is blocked or inactive")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// GetCurrentUser returns the account resolved by RequireUser
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "Current user not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "Current user is not in the expected format"}
	}
	return user, nil
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
