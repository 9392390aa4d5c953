package util

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var cpfPattern = regexp.MustCompile(`^\d{11}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateStruct aplica as tags de validação e devolve o primeiro problema.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return errors.New(fe.Field() + " obrigatório")
		case "email":
			return errors.New("email inválido")
		case "cpf":
			return errors.New("cpf deve ter 11 dígitos")
		case "min":
			return errors.New(fe.Field() + " abaixo do mínimo")
		case "oneof":
			return errors.New(fe.Field() + " fora do conjunto permitido")
		}
		return errors.New(fe.Field() + " inválido")
	}
	return err
}

// ValidateCPF confere o formato de 11 dígitos.
func ValidateCPF(cpf string) error {
	if !cpfPattern.MatchString(cpf) {
		return errors.New("cpf deve ter 11 dígitos")
	}
	return nil
}
