package application

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

var (
	usPhoneRe = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	nonDigit  = regexp.MustCompile(`\D`)
)

// FieldErrors maps a field key to the first validation message for it.
type FieldErrors map[string]string

// SectionForm is a normalized, validated submission for one section.
type SectionForm struct {
	Section string
	Values  map[string]string
	Errors  FieldErrors
}

// Valid reports whether the submission passed every rule.
func (f *SectionForm) Valid() bool {
	return len(f.Errors) == 0
}

// FormValidator applies the catalog-derived rules of a section to raw input.
type FormValidator struct {
	catalog  *catalog.Catalog
	validate *validator.Validate
}

// NewFormValidator creates a FormValidator for cat.
func NewFormValidator(cat *catalog.Catalog) *FormValidator {
	v := validator.New()
	_ = v.RegisterValidation("us_phone", func(fl validator.FieldLevel) bool {
		return usPhoneRe.MatchString(fl.Field().String())
	})
	return &FormValidator{catalog: cat, validate: v}
}

// NormalizePhone rewrites a value holding exactly ten digits in any format to
// "(ddd) ddd-dddd". Anything else is returned unchanged for validation to reject.
func NormalizePhone(raw string) string {
	if raw == "" || usPhoneRe.MatchString(raw) {
		return raw
	}
	digits := nonDigit.ReplaceAllString(raw, "")
	if len(digits) != 10 {
		return raw
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// CoerceBool maps checkbox-style input to "1" or "0". Absent or unrecognized
// input is false.
func CoerceBool(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return "1"
	}
	return "0"
}

// Validate normalizes input for section and checks it against the catalog.
// existing holds the currently stored values and lets a blank required
// password field keep its stored value. Only fields present in input (plus
// boolean fields, which default to false) appear in the result.
func (v *FormValidator) Validate(section string, input, existing map[string]string) (*SectionForm, error) {
	sec, ok := v.catalog.Section(section)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	form := &SectionForm{
		Section: section,
		Values:  make(map[string]string, len(sec.Fields)),
		Errors:  FieldErrors{},
	}

	for _, f := range sec.Fields {
		raw, present := input[f.Key]
		value := normalize(f, raw)

		if f.Type == model.FieldTypeBoolean {
			form.Values[f.Key] = value
			continue
		}
		if present {
			form.Values[f.Key] = value
		}

		if msg := v.check(f, value, existing[f.Key]); msg != "" {
			form.Errors[f.Key] = msg
		}

		if f.Confirm != "" {
			confirm, ok := input[f.Confirm]
			if ok {
				form.Values[f.Confirm] = confirm
			}
			if confirm != "" && confirm != value {
				form.Errors[f.Confirm] = f.Message("confirm", f.Label+" confirmation does not match.")
			}
		}
	}

	return form, nil
}

func normalize(f catalog.Field, raw string) string {
	switch f.Type {
	case model.FieldTypeBoolean:
		return CoerceBool(raw)
	case model.FieldTypePassword:
		return raw
	case model.FieldTypeTel:
		return NormalizePhone(strings.TrimSpace(raw))
	}
	return strings.TrimSpace(raw)
}

// check returns the first failing rule's message, or "" when value is valid.
func (v *FormValidator) check(f catalog.Field, value, stored string) string {
	if value == "" {
		if f.Required && !(f.Type == model.FieldTypePassword && stored != "") {
			return f.Message("required", f.Label+" is required.")
		}
		return ""
	}

	switch f.Type {
	case model.FieldTypeEmail:
		if v.validate.Var(value, "email") != nil {
			return f.Message("email", f.Label+" must be a valid email address.")
		}
	case model.FieldTypeTel:
		if v.validate.Var(value, "us_phone") != nil {
			return f.Message("format", f.Label+" format must be (555) 123-4567.")
		}
	case model.FieldTypeNumber:
		if msg := v.checkNumber(f, value); msg != "" {
			return msg
		}
	case model.FieldTypeSelect, model.FieldTypeRadio:
		if !f.HasOption(value) {
			return f.Message("option", f.Label+" has an invalid selection.")
		}
	}

	if f.MinLength > 0 && v.validate.Var(value, "min="+strconv.Itoa(f.MinLength)) != nil {
		return f.Message("min_length", fmt.Sprintf("%s must be at least %d characters.", f.Label, f.MinLength))
	}
	if f.MaxLength > 0 && v.validate.Var(value, "max="+strconv.Itoa(f.MaxLength)) != nil {
		return f.Message("max_length", fmt.Sprintf("%s may not be greater than %d characters.", f.Label, f.MaxLength))
	}

	return ""
}

func (v *FormValidator) checkNumber(f catalog.Field, value string) string {
	if v.validate.Var(value, "numeric") != nil {
		return f.Message("numeric", f.Label+" must be a valid number.")
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return f.Message("numeric", f.Label+" must be a valid number.")
	}
	if f.Min != nil && n < *f.Min {
		return f.Message("min", fmt.Sprintf("%s must be at least %s.", f.Label, formatBound(*f.Min)))
	}
	if f.Max != nil && n > *f.Max {
		return f.Message("max", fmt.Sprintf("%s cannot exceed %s.", f.Label, formatBound(*f.Max)))
	}
	return ""
}

func formatBound(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}
