package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wardline/roster-api/internal/models"
	appErrors "github.com/wardline/roster-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	return v.claims, v.err
}

func buildRouter(auth TokenValidator, roles ...models.NurseRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", JWT(auth))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return r
}

func perform(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddlewareAcceptsBearerToken(t *testing.T) {
	auth := &validatorStub{claims: &models.JWTClaims{UserID: "nurse-1", Role: models.RoleNurse}}
	r := buildRouter(auth)

	resp := perform(r, "Bearer token")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "nurse-1")
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	r := buildRouter(&validatorStub{})

	resp := perform(r, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTMiddlewareMalformedHeader(t *testing.T) {
	r := buildRouter(&validatorStub{})

	resp := perform(r, "Token abc")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestJWTMiddlewareInvalidToken(t *testing.T) {
	r := buildRouter(&validatorStub{err: appErrors.ErrUnauthorized})

	resp := perform(r, "Bearer bad")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireRolesForbidsNurse(t *testing.T) {
	auth := &validatorStub{claims: &models.JWTClaims{UserID: "nurse-1", Role: models.RoleNurse}}
	r := buildRouter(auth, models.RoleSupervisor, models.RoleAdmin)

	resp := perform(r, "Bearer token")
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRequireRolesAllowsSupervisor(t *testing.T) {
	auth := &validatorStub{claims: &models.JWTClaims{UserID: "sup-1", Role: models.RoleSupervisor}}
	r := buildRouter(auth, models.RoleSupervisor, models.RoleAdmin)

	resp := perform(r, "Bearer token")
	require.Equal(t, http.StatusOK, resp.Code)
}
