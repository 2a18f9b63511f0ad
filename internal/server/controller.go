package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/temirov/sdmap/internal/catalog"
)

// Wrap adapts a controller to gin, rendering its result or error in the envelope.
func Wrap(controller func(c *gin.Context) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := controller(c)
		if err != nil {
			c.JSON(errorResponse(err))
			return
		}
		if result == nil {
			c.JSON(http.StatusOK, ErrNil)
			return
		}
		c.JSON(http.StatusOK, ErrNil.WithData(result))
	}
}

func errorResponse(err error) (int, *BusinessError) {
	var businessError *BusinessError
	if errors.As(err, &businessError) {
		return http.StatusOK, businessError
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return http.StatusBadRequest, ErrValidation.WithData(validationErrors.Error())
	}
	if errors.Is(err, catalog.ErrSectionNotFound) ||
		errors.Is(err, catalog.ErrSubsectionNotFound) ||
		errors.Is(err, catalog.ErrNoFiles) ||
		errors.Is(err, catalog.ErrNoSubsections) {
		return http.StatusNotFound, ErrNotFound.WithData(err.Error())
	}
	return http.StatusInternalServerError, ErrInternal.WithData(err.Error())
}
