package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/repository"
	"github.com/snaplink/snaplink/internal/service"
)

func setupRedirectRouter(t *testing.T) (*gin.Engine, *MockLinkRepository) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	mockLinks := new(MockLinkRepository)
	mockUsers := new(MockUserRepository)
	h := NewRedirectHandler(service.NewLinkService(mockLinks, mockUsers))

	r := gin.New()
	r.GET("/api/v1/s_link/:shortCode", h.Redirect)

	return r, mockLinks
}

func TestRedirect_Found(t *testing.T) {
	r, mockLinks := setupRedirectRouter(t)

	mockLinks.On("ResolveAndIncrement", mock.Anything, "Ab3dE6").
		Return("https://example.com/landing", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/s_link/Ab3dE6", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/landing", w.Header().Get("Location"))
}

func TestRedirect_NotFound(t *testing.T) {
	r, mockLinks := setupRedirectRouter(t)

	mockLinks.On("ResolveAndIncrement", mock.Anything, "zzZZ99").
		Return("", repository.ErrLinkNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/s_link/zzZZ99", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "link not found")
}

func TestRedirect_MalformedCode(t *testing.T) {
	r, mockLinks := setupRedirectRouter(t)

	// Codes outside the 6-8 alphanumeric shape never reach storage.
	for _, code := range []string{"ab1", "abc-def", "waytoolongcode123"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/s_link/"+code, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, "code %q", code)
	}

	mockLinks.AssertNotCalled(t, "ResolveAndIncrement", mock.Anything, mock.Anything)
}
