package payout

import (
	"fmt"
	"strings"

	"github.com/payout/backend/internal/domain/shared"
)

// PayoutFrequency controls how often an investment distributes its return
type PayoutFrequency string

const (
	FrequencyMonthly      PayoutFrequency = "monthly"
	FrequencyQuarterly    PayoutFrequency = "quarterly"
	FrequencySemiAnnually PayoutFrequency = "semi_annually"
	FrequencyAnnually     PayoutFrequency = "annually"
	FrequencyEndOfTerm    PayoutFrequency = "end_of_term"
)

// AllFrequencies lists every supported payout frequency
func AllFrequencies() []PayoutFrequency {
	return []PayoutFrequency{
		FrequencyMonthly,
		FrequencyQuarterly,
		FrequencySemiAnnually,
		FrequencyAnnually,
		FrequencyEndOfTerm,
	}
}

// IsValid checks if the frequency is supported
func (f PayoutFrequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnually, FrequencyAnnually, FrequencyEndOfTerm:
		return true
	}
	return false
}

func (f PayoutFrequency) String() string {
	return string(f)
}

// IntervalMonths returns the number of months between two occurrences.
// End-of-term pays once, so its interval is the whole investment period.
func (f PayoutFrequency) IntervalMonths(periodMonths int) int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnually:
		return 6
	case FrequencyAnnually:
		return 12
	case FrequencyEndOfTerm:
		return periodMonths
	}
	return 0
}

// ParsePayoutFrequency parses a frequency string, accepting any case
func ParsePayoutFrequency(s string) (PayoutFrequency, error) {
	f := PayoutFrequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", shared.NewDomainError(CodeValidation, fmt.Sprintf("Unknown payout frequency %q", s))
	}
	return f, nil
}
