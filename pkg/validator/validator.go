// Package validator wraps go-playground/validator with the custom tags
// used by billing and repository-list inputs.
package validator

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError is a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// New creates a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("plan_tier", validatePlanTier)
	_ = v.RegisterValidation("billing_rate", validateBillingRate)
	_ = v.RegisterValidation("trial_status", validateTrialStatus)
	_ = v.RegisterValidation("sort_column", validateSortColumn)
	_ = v.RegisterValidation("sort_direction", validateSortDirection)
	_ = v.RegisterValidation("configured_filter", validateConfiguredFilter)
	_ = v.RegisterValidation("provider", validateProvider)

	return &Validator{validate: v}
}

// Validate validates a struct, returning ValidationErrors on failure.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if stderrors.As(err, &invalid) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "plan_tier":
		return "must be a valid plan tier"
	case "billing_rate":
		return "must be monthly or annually"
	case "trial_status":
		return "must be a valid trial status"
	case "sort_column":
		return "must be name, coverage or latestCommitAt"
	case "sort_direction":
		return "must be ASC or DESC"
	case "configured_filter":
		return "must be CONFIGURED, NOT_CONFIGURED or ALL"
	case "provider":
		return "must be a supported git provider"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// supportedProviders are the git hosts the dashboard fronts.
var supportedProviders = map[string]bool{
	"gh": true, "gl": true, "bb": true,
	"github": true, "gitlab": true, "bitbucket": true,
}

func validatePlanTier(fl validator.FieldLevel) bool {
	return plan.Tier(fl.Field().String()).IsValid()
}

func validateBillingRate(fl validator.FieldLevel) bool {
	return plan.BillingRate(fl.Field().String()).IsValid()
}

func validateTrialStatus(fl validator.FieldLevel) bool {
	return account.TrialStatus(fl.Field().String()).IsValid()
}

func validateSortColumn(fl validator.FieldLevel) bool {
	return repo.SortColumn(fl.Field().String()).IsValid()
}

func validateSortDirection(fl validator.FieldLevel) bool {
	return repo.Direction(strings.ToUpper(fl.Field().String())).IsValid()
}

func validateConfiguredFilter(fl validator.FieldLevel) bool {
	return repo.ConfiguredFilter(strings.ToUpper(fl.Field().String())).IsValid()
}

func validateProvider(fl validator.FieldLevel) bool {
	return supportedProviders[strings.ToLower(fl.Field().String())]
}
