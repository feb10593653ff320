package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps the go-playground validator with the dashboard's custom rules
type Validator struct {
	validate *validator.Validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a validator with custom rules and JSON field names
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("txn_type", validateTxnType)
	_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	_ = v.RegisterValidation("nonneg_decimal", validateNonNegativeDecimal)
	_ = v.RegisterValidation("timestamp", validateTimestamp)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s and converts failures into a *domain.ValidationError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domain.ValidationError{Detail: err.Error()}
	}

	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return &domain.ValidationError{Fields: fields}
}

// Validate validates s with the shared validator
func Validate(s interface{}) error {
	return GetValidator().Struct(s)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "nefield":
		return "must differ from " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "iso4217":
		return "must be a 3-letter ISO currency code"
	case "account_type":
		return "must be one of: savings, checking, credit_card, loan, investment"
	case "txn_type":
		return "must be debit or credit"
	case "positive_decimal":
		return "must be greater than 0"
	case "nonneg_decimal":
		return "cannot be negative"
	case "timestamp":
		return "must be a valid date or datetime"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validateAccountType(fl validator.FieldLevel) bool {
	_, ok := domain.ParseAccountType(fl.Field().String())
	return ok
}

func validateTxnType(fl validator.FieldLevel) bool {
	switch domain.TxnType(strings.ToLower(fl.Field().String())) {
	case domain.TxnTypeDebit, domain.TxnTypeCredit:
		return true
	}
	return false
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}

func validateTimestamp(fl validator.FieldLevel) bool {
	_, err := domain.ParseTimestamp(fl.Field().String())
	return err == nil
}

// CategoryRule checks the rule-specific constraint that struct tags cannot express
func CategoryRule(input domain.CategoryRuleInput) error {
	if err := Validate(input); err != nil {
		return err
	}
	if len(nonBlank(input.Keywords)) == 0 && len(nonBlank(input.Merchants)) == 0 {
		return domain.NewValidationError("keywords", "at least one keyword or merchant is required")
	}
	return nil
}

// CSVFile checks a CSV upload before it is sent
func CSVFile(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return domain.NewValidationError("file", "a CSV file is required")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return domain.NewValidationError("file", "only .csv files are accepted")
	}
	if size == 0 {
		return domain.NewValidationError("file", "file is empty")
	}
	return nil
}

// AccountID rejects non-positive identifiers
func AccountID(id int64) error {
	if id <= 0 {
		return domain.NewValidationError("account_id", "must be a positive id")
	}
	return nil
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
