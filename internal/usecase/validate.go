package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"llm-bridge/internal/domain"
)

// RequestValidator parses inbound bodies into normalized requests.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Parse decodes body and checks it in order: JSON syntax, provider presence,
// then field constraints. Whether the provider is supported is left to the
// dispatcher.
func (rv *RequestValidator) Parse(body []byte) (domain.ChatRequest, error) {
	var req domain.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.ChatRequest{}, invalidBody("Invalid JSON: "+err.Error(), err)
	}
	if req.Provider == "" {
		return domain.ChatRequest{}, newError(ErrorMissingProvider, http.StatusBadRequest, "Missing provider", nil)
	}
	if err := rv.validate.Struct(req); err != nil {
		return domain.ChatRequest{}, invalidBody("Invalid request: "+describeValidation(err), err)
	}
	return req, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "ChatRequest.")
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
