package dto

import (
	"campus-food/internal/order/domain/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// RegisterValidations adds the domain tags used by the request structs to gin's
// validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}

	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	}); err != nil {
		return errors.Wrap(err, "register category validation")
	}

	if err := v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	}); err != nil {
		return errors.Wrap(err, "register order_status validation")
	}
	return nil
}
