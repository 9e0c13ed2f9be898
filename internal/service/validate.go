package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"go-storefront/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,12}$`)
	zipPattern   = regexp.MustCompile(`^[A-Za-z0-9 -]{3,10}$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// NewValidator 字段名取 json tag, 并注册 phone / zip / slug 规则
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct 校验失败时返回带字段信息的 Validation 错误
func validateStruct(v *validator.Validate, s interface{}) error {
	fields, err := fieldErrors(v, s)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return apperror.ValidationFields(fields)
	}
	return nil
}

// fieldErrors 字段名 -> 提示信息, 校验通过时为空 map
func fieldErrors(v *validator.Validate, s interface{}) (map[string]string, error) {
	fields := make(map[string]string)
	err := v.Struct(s)
	if err == nil {
		return fields, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return fields, nil
}

// fieldPath 去掉顶层结构体名: CheckoutForm.billing.zip -> billing.zip
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("at most %s characters", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("at least %s characters", fe.Param())
	case "email":
		return "enter a valid email address"
	case "phone":
		return "enter a valid phone number"
	case "zip":
		return "enter a valid zip code"
	case "slug":
		return "letters, numbers, underscores or hyphens only"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "eqfield":
		return "the two fields do not match"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
