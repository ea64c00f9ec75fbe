package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound  = "CATEGORY_NOT_FOUND"
	ErrCodeRuleNotFound      = "RULE_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeInvalidParameter  = "INVALID_PARAMETER"
	ErrCodeInvalidRule       = "INVALID_RULE"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeDiscountExhausted = "DISCOUNT_EXHAUSTED"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeInUse             = "RESOURCE_IN_USE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrCategoryNotFound  = NewDomainError(ErrCodeCategoryNotFound, "Category not found")
	ErrRuleNotFound      = NewDomainError(ErrCodeRuleNotFound, "Discount rule not found")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrDiscountExhausted = NewDomainError(ErrCodeDiscountExhausted, "A promotion ran out of redemptions, please review your cart")
)

// InvalidRule wraps a rule validation failure as a domain error.
func InvalidRule(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidRule, message)
}
