// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"smsledger/internal/models"
	"smsledger/internal/store"
)

var deviceIDRegex = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("payment_mode", validatePaymentMode)
	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("clock_time", validateClockTime)
	_ = v.RegisterValidation("month", validateMonth)
	_ = v.RegisterValidation("device_id", validateDeviceID)
	_ = v.RegisterValidation("card_last4", validateCardLast4)
}

// ValidDeviceID reports whether id is an acceptable device identifier.
func ValidDeviceID(id string) bool {
	return deviceIDRegex.MatchString(id)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).IsValid()
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).IsValid()
}

func validatePaymentMode(fl validator.FieldLevel) bool {
	return models.PaymentMode(fl.Field().String()).IsValid()
}

func validateISODate(fl validator.FieldLevel) bool {
	return models.ValidDate(fl.Field().String())
}

func validateClockTime(fl validator.FieldLevel) bool {
	return models.ValidClock(fl.Field().String())
}

func validateMonth(fl validator.FieldLevel) bool {
	_, err := store.ParseMonth(fl.Field().String())
	return err == nil
}

func validateDeviceID(fl validator.FieldLevel) bool {
	return ValidDeviceID(fl.Field().String())
}

func validateCardLast4(fl validator.FieldLevel) bool {
	return models.ValidLast4(fl.Field().String())
}
