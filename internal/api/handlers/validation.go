package handlers

import (
	"example.com/restaurant-pos/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	registerCustomValidations()
}

// validateStruct validates a struct using validation tags
func validateStruct(s interface{}) error {
	return validate.Struct(s)
}

func registerCustomValidations() {
	_ = validate.RegisterValidation("item_type", func(fl validator.FieldLevel) bool {
		return models.ItemType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("item_status", func(fl validator.FieldLevel) bool {
		return models.ItemStatus(fl.Field().String()).Valid()
	})
}
