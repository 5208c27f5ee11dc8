package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/report"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const testPageSize = 6

type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	auth   *service.AuthService
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)
	users := service.NewUserService(db, testPageSize)
	catalog := service.NewCatalogService(db)
	images := service.NewImageService(service.NewLocalImageStore(t.TempDir(), "/media"))
	recipes := service.NewRecipeService(db, images, testPageSize)

	router := gin.New()
	group := router.Group("/api")
	api.NewAuthHandler(auth, nil).RegisterRoutes(group)
	api.NewUserHandler(auth, users, testPageSize).RegisterRoutes(group)
	api.NewCatalogHandler(catalog, auth).RegisterRoutes(group)
	api.NewRecipeHandler(recipes, auth, report.NewShoppingListRenderer(""), nil, testPageSize).RegisterRoutes(group)
	router.GET("/health", api.NewHealthHandler(db).HealthCheck)

	return &testAPI{t: t, db: db, auth: auth, router: router}
}

func (a *testAPI) token(user *models.User) string {
	a.t.Helper()
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

// do sends body as JSON. An empty token makes an anonymous request.
func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type fieldErrors map[string][]string
