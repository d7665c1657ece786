package validator

import (
	"reflect"
	"strings"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator holds the go-playground validator with the domain rules registered
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateVideoUpload checks the upload form and that at least one file was sent.
func (bv *BusinessValidator) ValidateVideoUpload(form *VideoUploadForm, fileCount int) ValidationErrors {
	var errs ValidationErrors
	if fileCount == 0 {
		errs = append(errs, ValidationError{Field: "file", Message: "is required", Rule: "required"})
	}
	errs = append(errs, bv.Validate(form)...)
	return errs
}

// ValidateVideoExam checks the combined upload form. The exam fields are
// all required in this flow.
func (bv *BusinessValidator) ValidateVideoExam(form *VideoExamForm, hasFile bool) ValidationErrors {
	var errs ValidationErrors
	if !hasFile {
		errs = append(errs, ValidationError{Field: "file", Message: "is required", Rule: "required"})
	}
	errs = append(errs, bv.Validate(form)...)
	return errs
}

// ValidateUserUpdate requires at least one field.
func (bv *BusinessValidator) ValidateUserUpdate(req *UserUpdateRequest) ValidationErrors {
	errs := bv.Validate(req)
	if req.IsEmpty() {
		errs = append(errs, ValidationError{Field: "body", Message: "no fields to update", Rule: "business_logic"})
	}
	return errs
}

func (bv *BusinessValidator) registerBusinessRules() {
	// Non-empty after trimming whitespace
	bv.validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	bv.validate.RegisterValidation("authority", func(fl validator.FieldLevel) bool {
		v := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		return v == string(models.AuthorityAdmin) || v == string(models.AuthorityUser)
	})

	bv.validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		switch models.Gender(fl.Field().String()) {
		case models.GenderMale, models.GenderFemale, models.GenderOther:
			return true
		}
		return false
	})
}
