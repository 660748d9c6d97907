package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// SetupValidator configures gin's binding validator: error messages use
// JSON field names, and the sync enums get binding tags so DTOs can
// declare `binding:"entitytype"` instead of validating by hand.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("entitytype", func(fl validator.FieldLevel) bool {
		return sync.EntityType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("syncdirection", func(fl validator.FieldLevel) bool {
		return sync.Direction(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return sync.TaskStatus(fl.Field().String()).IsValid()
	})
}
