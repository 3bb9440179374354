// Package validator provides the custom validation tags shared by Gin's
// binding engine and the validation of AI collaborator output.
package validator

import (
	"sync"

	"sofia/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	standalone     *validator.Validate
	standaloneOnce sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerTags(v)
	}
}

// Get returns a process-wide validator with the custom tags registered,
// for values that do not arrive through Gin binding.
func Get() *validator.Validate {
	standaloneOnce.Do(func() {
		standalone = validator.New(validator.WithRequiredStructEnabled())
		registerTags(standalone)
	})
	return standalone
}

// Struct validates s with the standalone validator.
func Struct(s any) error {
	return Get().Struct(s)
}

func registerTags(v *validator.Validate) {
	_ = v.RegisterValidation("txn_type", validateTransactionType)
	_ = v.RegisterValidation("currency_code", validateCurrency)
	_ = v.RegisterValidation("income_class", validateIncomeClass)
	_ = v.RegisterValidation("expense_class", validateExpenseClass)
	_ = v.RegisterValidation("budget_impact", validateBudgetImpact)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.Currency(fl.Field().String()).Valid()
}

// IncomeClasses are the labels an income classification may take.
var IncomeClasses = []string{"salary", "freelance", "business", "investment", "rental", "gift", "bonus", "other"}

// ExpenseClasses are the labels an expense classification may take.
var ExpenseClasses = []string{"essential", "discretionary", "investment", "emergency", "entertainment", "health", "education", "transportation"}

// BudgetImpacts are the labels a budget impact assessment may take.
var BudgetImpacts = []string{"low", "medium", "high", "critical"}

func validateIncomeClass(fl validator.FieldLevel) bool {
	return oneOf(fl.Field().String(), IncomeClasses)
}

func validateExpenseClass(fl validator.FieldLevel) bool {
	return oneOf(fl.Field().String(), ExpenseClasses)
}

func validateBudgetImpact(fl validator.FieldLevel) bool {
	return oneOf(fl.Field().String(), BudgetImpacts)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
