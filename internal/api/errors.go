package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/service"
)

// responder turns service errors into HTTP responses
type responder struct {
	logger         *zap.Logger
	conflictStatus int
}

func newResponder(logger *zap.Logger, conflictStatus int) responder {
	if conflictStatus == 0 {
		conflictStatus = http.StatusBadRequest
	}
	return responder{logger: logger, conflictStatus: conflictStatus}
}

func (r responder) respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ve.Fields)
		return
	}

	msg := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Message
	}

	switch {
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusBadRequest, gin.H{"errors": msg})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msg})
	case errors.Is(err, service.ErrConflict):
		c.JSON(r.conflictStatus, gin.H{"errors": msg})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msg})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"detail": msg})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{msg}})
	default:
		_ = c.Error(err)
		r.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondBindError reports a request body that could not be decoded
func (r responder) respondBindError(c *gin.Context, err error) {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field, _, _ := strings.Cut(typeErr.Field, ".")
		if field == "" {
			field = "non_field_errors"
		}
		r.respondError(c, service.NewValidationError(field, fmt.Sprintf("Expected %s, got %s.", typeErr.Type, typeErr.Value)))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.respondError(c, service.NewValidationError("non_field_errors", "Malformed JSON request body."))
	default:
		r.respondError(c, service.NewValidationError("non_field_errors", err.Error()))
	}
}

// parseID reads a positive numeric route parameter; anything else is a 404
func (r responder) parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return uint(id), true
}
