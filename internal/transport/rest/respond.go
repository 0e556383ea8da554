package rest

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"hr_project/internal/apperrors"
	"hr_project/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var registerValidatorsOnce sync.Once

// registerValidators reports json field names in validation errors and adds "notblank".
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			if field.Kind() == reflect.Pointer {
				if field.IsNil() {
					return true
				}
				field = field.Elem()
			}
			return field.Kind() != reflect.String || strings.TrimSpace(field.String()) != ""
		})
	})
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		log.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	if kind == apperrors.KindUnauthenticated {
		c.Header("WWW-Authenticate", "Bearer")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(kind), gin.H{"detail": apperrors.PublicMessage(err)})
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// bindingError turns a binding or validation failure into a validation AppError.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fieldMessage(fe))
		}
		return apperrors.Validation(strings.Join(parts, "; "))
	}
	return apperrors.Wrap(apperrors.KindValidation, "Malformed request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func bindQuery(c *gin.Context, dst any) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validationf("%s must be a valid UUID", name)
	}
	return id, nil
}

type pageQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit" binding:"min=0"`
}

func (q pageQuery) page() repository.Page {
	return repository.Page{Skip: q.Skip, Limit: q.Limit}
}

func queryPage(c *gin.Context) (repository.Page, error) {
	var q pageQuery
	if err := bindQuery(c, &q); err != nil {
		return repository.Page{}, err
	}
	return q.page(), nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.Validationf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", name)
}

func parseUUIDParam(name, value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, apperrors.Validationf("%s must be a valid UUID", name)
	}
	return &id, nil
}

func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
