// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validCurrencies contains ISO 4217 currency codes.
var validCurrencies = map[string]bool{
	"AUD": true, "BGN": true, "BRL": true, "CAD": true, "CHF": true,
	"CNY": true, "CZK": true, "DKK": true, "EUR": true, "GBP": true,
	"HKD": true, "HRK": true, "HUF": true, "IDR": true, "ILS": true,
	"INR": true, "ISK": true, "JPY": true, "KRW": true, "MXN": true,
	"MYR": true, "NOK": true, "NZD": true, "PHP": true, "PLN": true,
	"RON": true, "RSD": true, "SEK": true, "SGD": true, "THB": true,
	"TRY": true, "UAH": true, "USD": true, "ZAR": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("allowance_frequency", validateAllowanceFrequency)
		_ = v.RegisterValidation("request_status", validateRequestStatus)
		_ = v.RegisterValidation("notification_type", validateNotificationType)
		_ = v.RegisterValidation("notification_priority", validateNotificationPriority)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "guardian", "child":
		return true
	}
	return false
}

func validateAllowanceFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "biweekly", "monthly":
		return true
	}
	return false
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "approved", "rejected":
		return true
	}
	return false
}

func validateNotificationType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "allowance_paid", "money_request", "request_resolved", "chore_reviewed", "system_announcement":
		return true
	}
	return false
}

func validateNotificationPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "normal", "high", "urgent":
		return true
	}
	return false
}
