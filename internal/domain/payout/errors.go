package payout

import "github.com/payout/backend/internal/domain/shared"

// Error codes raised by the payout domain
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeNotDue            = "PAYOUT_NOT_DUE"
	CodeDependencyFailure = "DEPENDENCY_FAILURE"
	CodePermissionDenied  = "PERMISSION_DENIED"
)

var (
	ErrDueNotFound        = shared.NewDomainError(CodeNotFound, "Investment due not found")
	ErrInvestmentNotFound = shared.NewDomainError(CodeNotFound, "Investment not found")
	ErrAlreadyCompleted   = shared.NewDomainError(CodeStateConflict, "All payouts for this investment have been completed")
	ErrOccurrenceSettled  = shared.NewDomainError(CodeStateConflict, "This payout occurrence has already been approved")
	ErrOccurrenceBusy     = shared.NewDomainError(CodeStateConflict, "This payout occurrence is being processed by another request")
	ErrNotDue             = shared.NewDomainError(CodeNotDue, "Payout is not eligible for approval")
	ErrPeriodRequired     = shared.NewDomainError(CodeValidation, "Payout period must be a positive occurrence number")
	ErrEmptyReason        = shared.NewDomainError(CodeValidation, "Rejection reason is required")
	ErrReasonTooLong      = shared.NewDomainError(CodeValidation, "Rejection reason cannot exceed 500 characters")
	ErrWalletCredit       = shared.NewDomainError(CodeDependencyFailure, "Failed to credit investor wallet")
	ErrActorRequired      = shared.NewDomainError(CodePermissionDenied, "An authenticated administrator is required")
)
