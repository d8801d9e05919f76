package handler

import (
	"errors"
	"net/http"
	"reflect"

	"entrepeques/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindQueryAndValidate binds query-string filters and runs validator tags.
func bindQueryAndValidate(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	if err := validate.Struct(filter); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// validation → 422, not found → 404, state conflict → 409, gateway → 502.
// Anything unrecognized is deferred to the ErrorHandler middleware as a 500.
func writeError(c *gin.Context, err error) {
	var (
		valErr *apierror.ValidationError
		nfErr  *apierror.NotFoundError
		cflErr *apierror.ConflictError
		extErr *apierror.ExternalServiceError
	)
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusUnprocessableEntity, valErr)
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, apierror.New(nfErr.Error()))
	case errors.As(err, &cflErr):
		c.JSON(http.StatusConflict, apierror.New(cflErr.Error()))
	case errors.As(err, &extErr):
		c.JSON(http.StatusBadGateway, apierror.New("La pasarela de pagos no está disponible. Intente nuevamente."))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
