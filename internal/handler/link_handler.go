package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/model"
	"github.com/snaplink/snaplink/internal/service"
)

const (
	defaultPageSize = 3
	maxPageSize     = 100
)

type LinkHandler struct {
	svc    *service.LinkService
	logger *zap.Logger
}

func NewLinkHandler(svc *service.LinkService) *LinkHandler {
	return &LinkHandler{
		svc:    svc,
		logger: zap.L().With(zap.String("component", "LinkHandler")),
	}
}

// DTOs
type LinkRequest struct {
	OriginalURL string     `json:"originalUrl" binding:"required,max=2048"`
	ExpiredAt   *time.Time `json:"expiredAt" binding:"omitempty,future"`
}

type LinkResponse struct {
	ID             int64      `json:"id"`
	OriginalURL    string     `json:"originalUrl"`
	ShortCode      string     `json:"shortCode"`
	RedirectsCount int64      `json:"redirectsCount"`
	ExpiredAt      *time.Time `json:"expiredAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// PageResponse is the pagination envelope shared by list endpoints.
type PageResponse struct {
	Content       []LinkResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int64          `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

func toLinkResponse(link model.Link) LinkResponse {
	return LinkResponse{
		ID:             link.ID,
		OriginalURL:    link.OriginalURL,
		ShortCode:      link.ShortCode,
		RedirectsCount: link.RedirectsCount,
		ExpiredAt:      link.ExpiredAt,
		CreatedAt:      link.CreatedAt,
	}
}

// Create shortens a URL for the user in the path. Responds 201 with a
// Location header pointing at the new resource.
func (h *LinkHandler) Create(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req LinkRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.svc.Create(c.Request.Context(), userID, req.OriginalURL, req.ExpiredAt)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", c.Request.URL.Path, link.ID))
	c.Status(http.StatusCreated)
}

// List returns one page of the user's links.
func (h *LinkHandler) List(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	page, size, sortBy, descending, ok := pageQuery(c)
	if !ok {
		return
	}

	links, total, err := h.svc.List(c.Request.Context(), userID, size, page*size, sortBy, descending)
	if err != nil {
		handleError(c, err)
		return
	}

	content := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		content = append(content, toLinkResponse(link))
	}

	totalPages := int((total + int64(size) - 1) / int64(size))

	c.JSON(http.StatusOK, PageResponse{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	})
}

// Replace overwrites an existing link. 204 on success.
func (h *LinkHandler) Replace(c *gin.Context) {
	if _, ok := pathID(c, "userId"); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req LinkRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Replace(c.Request.Context(), id, req.OriginalURL, req.ExpiredAt); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete removes a link. 204 on success.
func (h *LinkHandler) Delete(c *gin.Context) {
	if _, ok := pathID(c, "userId"); !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// pathID parses a positive numeric path parameter. Writes a 400 and
// returns false on anything else.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, name+": must be a positive integer")
		return 0, false
	}
	return id, true
}

// pageQuery parses page, size and sort parameters with the defaults
// page=0, size=3, sort=id,asc.
func pageQuery(c *gin.Context) (page, size int, sortBy string, descending, ok bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		respondError(c, http.StatusBadRequest, "page: must be a non-negative integer")
		return 0, 0, "", false, false
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size <= 0 || size > maxPageSize {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("size: must be between 1 and %d", maxPageSize))
		return 0, 0, "", false, false
	}

	sortBy = "id"
	if sortParam := c.Query("sort"); sortParam != "" {
		parts := strings.SplitN(sortParam, ",", 2)
		sortBy = parts[0]
		if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
			descending = true
		}
	}

	return page, size, sortBy, descending, true
}
