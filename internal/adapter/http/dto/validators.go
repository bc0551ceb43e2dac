package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Discord ids are unsigned 64-bit integers rendered in decimal.
var snowflakeRe = regexp.MustCompile(`^[0-9]{1,20}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("snowflake", validateSnowflake)
	}
}

// validateSnowflake accepts decimal Discord ids.
func validateSnowflake(fl validator.FieldLevel) bool {
	return IsSnowflake(fl.Field().String())
}

// IsSnowflake reports whether s looks like a Discord id.
func IsSnowflake(s string) bool {
	return snowflakeRe.MatchString(s)
}
