package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

// UseJSONFieldNames makes binding errors report the json name of a field
// instead of the Go one.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}

// bindJSON decodes the request body into dst, turning decoding and binding
// failures into a *models.ValidationError.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return models.NewValidationError(verrs[0].Field(), "is "+verrs[0].Tag())
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.NewValidationError(typeErr.Field, "has the wrong type")
	}
	return models.NewValidationError("body", err.Error())
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("id", "must be a positive integer")
	}
	return uint(id), nil
}

func queryID(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, models.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}

func queryDate(c *gin.Context, name string) (models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return models.Date{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, models.NewValidationError(name, "must be a YYYY-MM-DD date")
	}
	return d, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// respondError maps domain errors to HTTP answers. Unknown errors are logged
// and hidden behind a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *models.ValidationError
	var stockErr *models.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "insufficient stock",
			"requested": stockErr.Requested.StringFixed(2),
			"available": stockErr.Available.StringFixed(2),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
