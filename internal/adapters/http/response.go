package http

import (
	"github.com/wallethub/ledger/internal/adapters/http/common"
)

// Re-exported so code that imports this package (for RouterBuilder) can
// reach the envelope helpers without also importing common. The handlers
// package imports common directly.
type (
	APIResponse = common.APIResponse
	APIError    = common.APIError
	APIMeta     = common.APIMeta
	FieldError  = common.FieldError
)

var (
	Success           = common.Success
	SuccessWithMeta   = common.SuccessWithMeta
	Error             = common.Error
	BadRequest        = common.BadRequest
	ValidationErrors  = common.ValidationErrors
	Unauthorized      = common.Unauthorized
	HandleDomainError = common.HandleDomainError
	GetRequestID      = common.GetRequestID
)
