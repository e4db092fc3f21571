package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/healthbook/scheduling-api/internal/model"
)

// RegisterValidations installs the custom binding rules used by request
// structs: "clocktime" for 24-hour HH:mm fields and "dateonly" for
// YYYY-MM-DD fields. Must run before the first request is bound.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClockTime(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
}
