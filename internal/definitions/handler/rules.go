package handler

import (
	"hemodilab_backend/internal/definitions/domain"
	platformvalidator "hemodilab_backend/platform/validator"

	"github.com/go-playground/validator/v10"
)

// RegisterRules binds the "entity" tag to the allowed vocabulary and the
// "httpmethod" tag to the supported verbs.
func RegisterRules(val *platformvalidator.Validator, entities []string) error {
	allowed := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		allowed[e] = struct{}{}
	}

	if err := val.RegisterValidation("entity", func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}); err != nil {
		return err
	}

	return val.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return domain.Method(fl.Field().String()).Valid()
	})
}
