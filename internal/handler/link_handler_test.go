package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/model"
	"github.com/snaplink/snaplink/internal/repository"
	"github.com/snaplink/snaplink/internal/service"
)

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) ResolveAndIncrement(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockLinkRepository) FindByID(ctx context.Context, id int64) (*model.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Link), args.Error(1)
}

func (m *MockLinkRepository) FindAllByUser(ctx context.Context, userID int64, limit, offset int, sortBy string, descending bool) ([]model.Link, error) {
	args := m.Called(ctx, userID, limit, offset, sortBy, descending)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Link), args.Error(1)
}

func (m *MockLinkRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, link *model.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func setupLinkRouter(t *testing.T) (*gin.Engine, *MockLinkRepository, *MockUserRepository) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	mockLinks := new(MockLinkRepository)
	mockUsers := new(MockUserRepository)
	h := NewLinkHandler(service.NewLinkService(mockLinks, mockUsers))

	r := gin.New()
	links := r.Group("/api/v1/shortener/:userId/links")
	{
		links.POST("", h.Create)
		links.GET("", h.List)
		links.PUT("/:id", h.Replace)
		links.DELETE("/:id", h.Delete)
	}

	return r, mockLinks, mockUsers
}

func knownUser(mockUsers *MockUserRepository, id int64) {
	mockUsers.On("GetByID", mock.Anything, id).Return(&model.User{ID: id, Username: "JohnDoe1"}, nil)
}

func TestCreateLink_Success(t *testing.T) {
	r, mockLinks, mockUsers := setupLinkRouter(t)
	knownUser(mockUsers, 7)

	mockLinks.On("ShortCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	mockLinks.On("Create", mock.Anything, mock.AnythingOfType("*model.Link")).
		Run(func(args mock.Arguments) {
			link := args.Get(1).(*model.Link)
			link.ID = 42
			link.CreatedAt = time.Now()
		}).
		Return(nil)

	w := postJSON(r, "/api/v1/shortener/7/links", `{"originalUrl":"https://example.com/page"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/shortener/7/links/42", w.Header().Get("Location"))
}

func TestCreateLink_InvalidURL(t *testing.T) {
	r, mockLinks, mockUsers := setupLinkRouter(t)
	knownUser(mockUsers, 7)

	w := postJSON(r, "/api/v1/shortener/7/links", `{"originalUrl":"not-a-url"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid URL format")
	mockLinks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLink_PastExpiry(t *testing.T) {
	r, _, _ := setupLinkRouter(t)

	w := postJSON(r, "/api/v1/shortener/7/links",
		`{"originalUrl":"https://example.com","expiredAt":"2020-01-01T00:00:00Z"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ExceptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "expiredAt: must be a future timestamp", body.Message)
}

func TestCreateLink_UnknownUser(t *testing.T) {
	r, _, mockUsers := setupLinkRouter(t)

	mockUsers.On("GetByID", mock.Anything, int64(99)).Return(nil, repository.ErrUserNotFound)

	w := postJSON(r, "/api/v1/shortener/99/links", `{"originalUrl":"https://example.com"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "user not found")
}

func TestCreateLink_BadUserIDPath(t *testing.T) {
	r, _, _ := setupLinkRouter(t)

	for _, userID := range []string{"abc", "-1", "0"} {
		w := postJSON(r, "/api/v1/shortener/"+userID+"/links", `{"originalUrl":"https://example.com"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "userId: must be a positive integer")
	}
}

func TestListLinks_DefaultPaging(t *testing.T) {
	r, mockLinks, mockUsers := setupLinkRouter(t)
	knownUser(mockUsers, 7)

	stored := []model.Link{
		{ID: 1, UserID: 7, OriginalURL: "https://example.com/a", ShortCode: "aaaaaa", CreatedAt: time.Now()},
		{ID: 2, UserID: 7, OriginalURL: "https://example.com/b", ShortCode: "bbbbbb", CreatedAt: time.Now()},
		{ID: 3, UserID: 7, OriginalURL: "https://example.com/c", ShortCode: "cccccc", CreatedAt: time.Now()},
	}
	mockLinks.On("FindAllByUser", mock.Anything, int64(7), 3, 0, "id", false).Return(stored, nil)
	mockLinks.On("CountByUser", mock.Anything, int64(7)).Return(int64(7), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shortener/7/links", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var page PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Content, 3)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 3, page.Size)
	assert.Equal(t, int64(7), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "aaaaaa", page.Content[0].ShortCode)
}

func TestListLinks_ExplicitPagingAndSort(t *testing.T) {
	r, mockLinks, mockUsers := setupLinkRouter(t)
	knownUser(mockUsers, 7)

	mockLinks.On("FindAllByUser", mock.Anything, int64(7), 10, 20, "redirects_count", true).
		Return([]model.Link{}, nil)
	mockLinks.On("CountByUser", mock.Anything, int64(7)).Return(int64(0), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/shortener/7/links?page=2&size=10&sort=redirects_count,desc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var page PageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Equal(t, int64(0), page.TotalElements)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
}

func TestListLinks_BadPagingParams(t *testing.T) {
	r, _, _ := setupLinkRouter(t)

	testCases := []struct {
		name  string
		query string
	}{
		{"negative page", "?page=-1"},
		{"non-numeric page", "?page=abc"},
		{"zero size", "?size=0"},
		{"oversized page", "?size=101"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/shortener/7/links"+tc.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestReplaceLink_Success(t *testing.T) {
	r, mockLinks, _ := setupLinkRouter(t)

	mockLinks.On("Update", mock.Anything, mock.MatchedBy(func(link *model.Link) bool {
		return link.ID == 42 && link.OriginalURL == "https://example.com/new"
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shortener/7/links/42",
		strings.NewReader(`{"originalUrl":"https://example.com/new"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestReplaceLink_NotFound(t *testing.T) {
	r, mockLinks, _ := setupLinkRouter(t)

	mockLinks.On("Update", mock.Anything, mock.AnythingOfType("*model.Link")).
		Return(repository.ErrLinkNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/shortener/7/links/999",
		strings.NewReader(`{"originalUrl":"https://example.com/new"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found")
}

func TestDeleteLink_Success(t *testing.T) {
	r, mockLinks, _ := setupLinkRouter(t)

	mockLinks.On("Delete", mock.Anything, int64(42)).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/shortener/7/links/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockLinks.AssertExpectations(t)
}

func TestDeleteLink_NotFound(t *testing.T) {
	r, mockLinks, _ := setupLinkRouter(t)

	mockLinks.On("Delete", mock.Anything, int64(999)).Return(repository.ErrLinkNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/shortener/7/links/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLink_BadIDPath(t *testing.T) {
	r, mockLinks, _ := setupLinkRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/shortener/7/links/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "id: must be a positive integer")
	mockLinks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
