package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "concretelab/internal/errors"
	"concretelab/pkg/contracts/domain"
)

// FieldError is one rejected field of a specimen configuration.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SpecimenValidator checks specimen configurations before they reach the
// loader. Field names in messages follow the json tags.
type SpecimenValidator struct {
	validate *validator.Validate
}

// NewSpecimenValidator creates a validator with the selector and regression
// head rules registered.
func NewSpecimenValidator() *SpecimenValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(columnSelectorRule, domain.ColumnSelector{})
	v.RegisterStructValidation(specimenRule, domain.SpecimenConfig{})

	return &SpecimenValidator{validate: v}
}

// columnSelectorRule requires exactly one of a positive index or a name.
func columnSelectorRule(sl validator.StructLevel) {
	sel := sl.Current().Interface().(domain.ColumnSelector)
	switch {
	case sel.IsZero():
		sl.ReportError(sel, "", "", "selector", "")
	case sel.Index != 0 && sel.Name != "":
		sl.ReportError(sel, "", "", "selector_exclusive", "")
	case sel.Index < 0:
		sl.ReportError(sel.Index, "index", "Index", "gte", "1")
	}
}

func specimenRule(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(domain.SpecimenConfig)
	if cfg.HeadRows == 0 && !cfg.HeadFraction.Valid() {
		sl.ReportError(cfg.HeadFraction, "head_fraction", "HeadFraction", "fraction", "")
	}
}

// Validate checks cfg and returns a validation AppError listing every
// rejected field.
func (v *SpecimenValidator) Validate(cfg domain.SpecimenConfig) error {
	err := v.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid specimen configuration", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Message: formatFieldError(fe),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + ": " + f.Message
	}

	appErr := apperrors.NewAppValidationError(
		fmt.Sprintf("invalid specimen configuration: %s", strings.Join(msgs, "; ")))
	appErr.WithContext("fields", fields)
	if cfg.Name != "" {
		appErr.WithContext(apperrors.ContextSpecimen, cfg.Name)
	}
	return appErr
}

// fieldPath strips the root struct name from the namespace,
// "SpecimenConfig.force_column" becomes "force_column".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return strings.TrimSuffix(ns, ".")
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "selector":
		return "needs a column index or a header name"
	case "selector_exclusive":
		return "takes either an index or a name, not both"
	case "fraction":
		return "must lie in (0, 1] when head_rows is not set"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
