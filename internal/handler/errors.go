package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/repository"
	"github.com/snaplink/snaplink/internal/service"
)

// ExceptionResponse is the error body for every failed request. Error
// carries the HTTP reason phrase, Message the human-readable detail.
type ExceptionResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ExceptionResponse{
		Timestamp: time.Now().UTC(),
		Error:     http.StatusText(status),
		Message:   message,
	})
}

// handleError translates service and repository failures into HTTP
// responses. Unknown errors fall through to 500 with the message passed
// along as-is.
func handleError(c *gin.Context, err error) {
	var usernameTaken *service.UsernameTakenError

	switch {
	case errors.As(err, &usernameTaken):
		respondError(c, http.StatusConflict, usernameTaken.Error())
	case errors.Is(err, service.ErrBadCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidURL):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrLinkNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		zap.L().Error("Unhandled error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

// bindJSON decodes the request body into obj, enforcing a JSON content
// type and formatting validation failures into a single 400 message.
// Returns false when a response has already been written.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if contentType := c.ContentType(); contentType != "" && contentType != "application/json" {
		respondError(c, http.StatusUnsupportedMediaType,
			fmt.Sprintf("Content-Type %q is not supported", contentType))
		return false
	}

	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			respondError(c, http.StatusBadRequest, formatValidationErrors(validationErrs))
			return false
		}
		respondError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	return true
}

// formatValidationErrors builds a deterministic message: one
// field-qualified reason per failed field, deduplicated, sorted and
// comma-joined.
func formatValidationErrors(errs validator.ValidationErrors) string {
	seen := make(map[string]struct{}, len(errs))
	messages := make([]string, 0, len(errs))

	for _, fieldErr := range errs {
		msg := fieldErr.Field() + ": " + validationMessage(fieldErr)
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		messages = append(messages, msg)
	}

	sort.Strings(messages)
	return strings.Join(messages, ", ")
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "must not be blank"
	case "username":
		return "must be 8-32 alphanumeric characters and contain at least one uppercase letter, one lowercase letter and one digit"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fieldErr.Param())
	case "max":
		return fmt.Sprintf("length must be less than or equal to %s characters", fieldErr.Param())
	case "future":
		return "must be a future timestamp"
	default:
		return "is invalid"
	}
}
