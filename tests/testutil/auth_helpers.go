package testutil

import (
	"errors"
	"net/http"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/rentyatra/rentyatra-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string) {
	c.Set(middleware.UserIDKey, userID)
	c.Set("validated_claims", MockValidatedClaims(userID, issuer, scopes))
}

// SubjectAuth treats the bearer token as the Auth0 subject itself.
// "Bearer auth0|alice" authenticates as auth0|alice.
func SubjectAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := subjectFromRequest(c.Request)
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}
		SetMockAuthContext(c, subject, "https://test.auth0.com/", nil)
		c.Next()
	}
}

// SubjectSocketAuth is the WebSocket counterpart of SubjectAuth. It also
// accepts the subject in ?token=.
func SubjectSocketAuth(r *http.Request) (string, error) {
	subject := subjectFromRequest(r)
	if subject == "" {
		subject = r.URL.Query().Get("token")
	}
	if subject == "" {
		return "", errors.New("missing token")
	}
	return subject, nil
}

// BearerFor returns an Authorization header value accepted by SubjectAuth
func BearerFor(subject string) string {
	return "Bearer " + subject
}

func subjectFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
