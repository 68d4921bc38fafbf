// Package handlers is the HTTP adapter's edge: it turns a gin.Context
// into a ledger.Executor call and the result back into an APIResponse.
// A handler never contains posting logic — that lives in internal/ledger
// — it only binds, authenticates the scope the caller needs, and maps
// errors through common.HandleDomainError.
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wallethub/ledger/internal/adapters/http/common"
)

var setupOnce sync.Once

// SetupValidator registers the currency_code and money_amount tags gin's
// binding validator uses, and switches field names in validation errors
// to each field's json tag.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("currency_code", validateCurrencyCode)
			_ = v.RegisterValidation("money_amount", validateMoneyAmount)
		}
	})
}

// validateCurrencyCode requires a 3-letter uppercase ISO 4217 code. The
// domain's valueobjects.NewCurrency is the authoritative check (it also
// verifies the code is one this ledger recognizes); this tag just keeps
// obviously malformed input out of the request-binding stage.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// moneyPattern accepts an unsigned decimal with up to 8 fractional
// digits; valueobjects.ParseDecimal rejects precision beyond what the
// currency's scale allows.
var moneyPattern = regexp.MustCompile(`^\d+(\.\d{1,8})?$`)

func validateMoneyAmount(fl validator.FieldLevel) bool {
	return moneyPattern.MatchString(fl.Field().String())
}

// HandleValidationErrors converts a binding error into a 400 response,
// surfacing per-field detail when gin's validator produced it.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: validationMessage(fieldErr),
			})
		}
	}

	if len(fieldErrors) == 0 {
		common.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	common.ValidationErrors(c, fieldErrors)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "invalid UUID format"
	case "min":
		return "value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "value is too long (maximum: " + fe.Param() + ")"
	case "len":
		return "value must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "value must be one of: " + fe.Param()
	case "currency_code":
		return "invalid currency code (must be 3 uppercase letters)"
	case "money_amount":
		return "invalid amount format (use decimal like '100.50')"
	default:
		return "invalid value"
	}
}

// BindJSON binds the JSON body, writing the error response itself on
// failure. Returns whether binding succeeded.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery binds query string parameters.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI binds path parameters.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// ListParams is the cursor-based pagination query shape every list
// endpoint accepts. Unlike offset pagination, a cursor stays stable
// under concurrent inserts — appending a new journal entry never shifts
// which page an existing cursor points into.
type ListParams struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// EffectiveLimit returns the page size to use, defaulting to 50 when the
// caller didn't specify one.
func (p ListParams) EffectiveLimit() int {
	if p.Limit <= 0 {
		return 50
	}
	return p.Limit
}

// BuildMeta wraps a next-page cursor in the envelope's meta shape.
// Returns nil when there is no further page, so the meta field is
// omitted from the response entirely.
func BuildMeta(nextCursor string) *common.APIMeta {
	if nextCursor == "" {
		return nil
	}
	return &common.APIMeta{NextCursor: nextCursor}
}
