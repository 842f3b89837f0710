package products

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/catalog3d/catalog/internal/platform/httpx"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Service) validate(p Product) error {
	err := s.validator.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		switch fieldErr.Tag() {
		case "required":
			msgs = append(msgs, fieldErr.Field()+" is required")
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param()))
		default:
			msgs = append(msgs, fieldErr.Field()+" is invalid")
		}
	}
	return httpx.Errorf(httpx.ErrValidation, strings.Join(msgs, "; "))
}

// checkUpdates decodes a PATCH body and rejects it as a whole when any key
// is outside allowed.
func checkUpdates(body []byte, allowed []string) (map[string]json.RawMessage, error) {
	var updates map[string]json.RawMessage
	if err := json.Unmarshal(body, &updates); err != nil || updates == nil {
		return nil, ErrInvalidBody
	}
	set := make(map[string]struct{}, len(allowed))
	for _, field := range allowed {
		set[field] = struct{}{}
	}
	for key := range updates {
		if _, ok := set[key]; !ok {
			return nil, ErrInvalidUpdates
		}
	}
	return updates, nil
}

// decodeFields unmarshals body onto p. Only keys present in body change.
func decodeFields(body []byte, p *Product) error {
	if err := json.Unmarshal(body, p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return httpx.Errorf(httpx.ErrValidation, fmt.Sprintf("%s has an invalid type", typeErr.Field))
		}
		return httpx.Errorf(httpx.ErrValidation, "Malformed JSON body")
	}
	return nil
}
