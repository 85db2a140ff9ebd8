package pipeline

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/bububa/colbert-go/components/embedder"
)

type textRequest struct {
	Text string `json:"text" validate:"required,utf8"`
}

type splitRequest struct {
	Text string `json:"text" validate:"utf8"`
}

type batchRequest struct {
	Documents map[string]string `json:"documents" validate:"required,dive,required,utf8"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("utf8", validUTF8)
	return v
}

// validUTF8 validates that a string field holds valid UTF-8.
func validUTF8(fl validator.FieldLevel) bool {
	return utf8.ValidString(fl.Field().String())
}

func (p *Pipeline) validateRequest(req any) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &embedder.ValidationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	ret := &embedder.ValidationError{Field: fe.Field()}
	switch fe.Tag() {
	case "required":
		ret.Reason = "is required"
	case "utf8":
		ret.Reason = "is not valid UTF-8"
	default:
		ret.Reason = "failed " + fe.Tag()
	}
	return ret
}
