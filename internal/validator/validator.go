// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"quarterdeck/internal/audit"
	"quarterdeck/internal/resources"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("resource_type", validateResourceType)
		_ = v.RegisterValidation("audit_action", validateAuditAction)
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("hex_color", validateHexColor)
	}
}

func validateResourceType(fl validator.FieldLevel) bool {
	return resources.Valid(resources.Type(fl.Field().String()))
}

func validateAuditAction(fl validator.FieldLevel) bool {
	return audit.Known(audit.Action(fl.Field().String()))
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "admin", "user":
		return true
	}
	return false
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}
