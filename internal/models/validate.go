package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"agencyhub/internal/apperr"
)

// MaxTitleLength bounds task and subtask titles, counted in characters. The
// title tags below spell the same limit.
const MaxTitleLength = 500

const (
	titleRule         = "required,notblank,max=500"
	priorityRule      = "oneof=urgent high medium low"
	projectStatusRule = "oneof=active paused completed archived"
	emailRule         = "omitempty,email"
	colorRule         = "omitempty,hexcolor,len=7"
	urlRule           = "omitempty,url"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the custom rules and JSON field naming the
// model tags rely on. The HTTP layer applies it to gin's binding engine so
// both validate with the same rules.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
}

// InvalidInput converts validator failures into a validation error naming the
// first offending field. Other errors, such as malformed JSON, are wrapped as is.
func InvalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Invalid("%s", describe(verrs[0].Field(), verrs[0]))
	}
	return apperr.Invalid("invalid request body: %v", err)
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " is not a valid email address"
	case "hexcolor", "len":
		return field + " must look like #RRGGBB"
	case "url":
		return field + " must be an absolute URL"
	case "uuid":
		return field + " must be a UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return InvalidInput(err)
	}
	return nil
}

// checkVar validates a single patch value against rule.
func checkVar(field string, value any, rule string) error {
	err := validate.Var(value, rule)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Invalid("%s", describe(field, verrs[0]))
	}
	return err
}

// checkSet validates a patch field that may not be cleared.
func checkSet[T any](field string, o Optional[T], rule string) error {
	if !o.Set {
		return nil
	}
	if o.Null {
		return apperr.Invalid("%s cannot be null", field)
	}
	return checkVar(field, o.Value, rule)
}

// checkClearable validates a patch field where null clears the value.
func checkClearable[T any](field string, o Optional[T], rule string) error {
	if !o.Set || o.Null {
		return nil
	}
	return checkVar(field, o.Value, rule)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (c NewClient) Validate() error {
	c.ContactEmail = trimmed(c.ContactEmail)
	c.BrandColor = trimmed(c.BrandColor)
	c.LogoURL = trimmed(c.LogoURL)
	return check(c)
}

func (p ClientPatch) Validate() error {
	if err := checkSet("name", p.Name, "required,notblank"); err != nil {
		return err
	}
	if err := checkClearable("contact_email", p.ContactEmail, emailRule); err != nil {
		return err
	}
	if err := checkClearable("brand_color", p.BrandColor, colorRule); err != nil {
		return err
	}
	return checkClearable("logo_url", p.LogoURL, urlRule)
}

func (p NewProject) Validate() error {
	p.CoverImageURL = trimmed(p.CoverImageURL)
	return check(p)
}

func (p ProjectPatch) Validate() error {
	if p.ClientID.Set && (p.ClientID.Null || p.ClientID.Value == "") {
		return apperr.Invalid("client_id cannot be cleared")
	}
	if err := checkClearable("client_id", p.ClientID, "uuid"); err != nil {
		return err
	}
	if err := checkSet("name", p.Name, "required,notblank"); err != nil {
		return err
	}
	if err := checkSet("status", p.Status, projectStatusRule); err != nil {
		return err
	}
	return checkClearable("cover_image_url", p.CoverImageURL, urlRule)
}

func (t NewTask) Validate() error {
	return check(t)
}

func (p TaskPatch) Validate() error {
	if err := checkSet("title", p.Title, titleRule); err != nil {
		return err
	}
	return checkSet("priority", p.Priority, priorityRule)
}

func (p SubtaskPatch) Validate() error {
	if err := checkSet("title", p.Title, titleRule); err != nil {
		return err
	}
	if p.Completed.Set && p.Completed.Null {
		return apperr.Invalid("completed cannot be null")
	}
	return nil
}

func (u NewUser) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	return check(u)
}

func (p ProfilePatch) Validate() error {
	if p.Name.Set && !p.Name.Null {
		p.Name.Value = strings.TrimSpace(p.Name.Value)
	}
	if err := checkSet("name", p.Name, "required,min=2"); err != nil {
		return err
	}
	return checkClearable("avatar_url", p.AvatarURL, urlRule)
}

// Validate checks a preferences patch; none of the flags may be nulled.
func (p NotificationPatch) Validate() error {
	flags := []struct {
		field string
		value Optional[bool]
	}{
		{"emailOnApproval", p.EmailOnApproval},
		{"emailOnComment", p.EmailOnComment},
		{"emailOnAssign", p.EmailOnAssign},
		{"emailOnDeadline", p.EmailOnDeadline},
	}
	for _, f := range flags {
		if f.value.Set && f.value.Null {
			return apperr.Invalid("%s cannot be null", f.field)
		}
	}
	return nil
}
