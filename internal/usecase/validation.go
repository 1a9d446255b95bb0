package usecase

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/phone"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("leadphone", func(fl validator.FieldLevel) bool {
		return phone.IsValid(fl.Field().String())
	})

	return v
}

// validateStruct runs the struct tags of s and turns the failures into
// field-level messages.
func validateStruct(s interface{}) []ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "input", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must be at most " + param + " characters"
		case "email":
			msg = "must be a valid email"
		case "oneof":
			msg = "must be one of: " + strings.ReplaceAll(param, " ", ", ")
		case "url":
			msg = "must be a valid URL"
		case "leadphone":
			msg = "must be a valid phone number"
		default:
			msg = "is invalid"
		}
		out = append(out, ValidationError{Field: field, Message: msg})
	}
	return out
}

// trimCreateLeadInput only trims whitespace; text is stored as entered and
// escaped by whoever renders it. The URL is discarded unless the lead has a
// website, so a leftover value is never validated.
func trimCreateLeadInput(in CreateLeadInput) CreateLeadInput {
	out := CreateLeadInput{
		ClientName:   strings.TrimSpace(in.ClientName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		BusinessType: strings.TrimSpace(in.BusinessType),
		HasWebsite:   strings.ToLower(strings.TrimSpace(in.HasWebsite)),
		WebsiteURL:   strings.TrimSpace(in.WebsiteURL),
	}
	if entity.WebsiteStatus(out.HasWebsite) != entity.WebsiteYes {
		out.WebsiteURL = ""
	}
	return out
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	errs := validateStruct(input)

	if entity.WebsiteStatus(input.HasWebsite) == entity.WebsiteYes {
		if input.WebsiteURL == "" {
			errs = append(errs, ValidationError{"website_url", "is required when has_website is yes"})
		} else if !isWellFormedURL(input.WebsiteURL) {
			// the url tag already reported it
			if !hasFieldError(errs, "website_url") {
				errs = append(errs, ValidationError{"website_url", "must be a valid URL"})
			}
		}
	}

	return errs
}

func ValidateRegisterUserInput(input RegisterUserInput) []ValidationError {
	return validateStruct(input)
}

func isWellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func hasFieldError(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func validationFailed(errs []ValidationError) *DomainError {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return &DomainError{
		Code:    CodeInvalidInput,
		Message: "validation failed: " + strings.Join(parts, ", "),
		Fields:  errs,
	}
}
