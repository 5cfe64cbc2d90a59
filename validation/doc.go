// Package validation validates configuration structs with
// go-playground/validator struct tags.
//
//	type Settings struct {
//	    TagName string `mapstructure:"tag_name" validate:"required,max=64"`
//	}
//	err := validation.Validate(&settings)
//
// Errors are *errors.AppError values with code INVALID_CONFIG whose
// "fields" detail lists each failure.
package validation
