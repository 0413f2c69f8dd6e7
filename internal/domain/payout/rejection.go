package payout

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxRejectionReasonLength bounds the stored rejection reason, in characters
const MaxRejectionReasonLength = 500

// PayoutRejection records an admin declining one occurrence. The occurrence
// stays outstanding and can be approved or rejected again later.
type PayoutRejection struct {
	ID         uuid.UUID `json:"id"`
	DueID      uuid.UUID `json:"due_id"`
	Period     int       `json:"period"`
	Reason     string    `json:"reason"`
	RejectedBy uuid.UUID `json:"rejected_by"`
	RejectedAt time.Time `json:"rejected_at"`
}

// NormalizeRejectionReason trims the reason and enforces presence and length
func NormalizeRejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", ErrEmptyReason
	}
	if utf8.RuneCountInString(reason) > MaxRejectionReasonLength {
		return "", ErrReasonTooLong
	}
	return reason, nil
}
